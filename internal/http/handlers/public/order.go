package public

import (
	"strings"

	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

const idempotencyKeyHeader = "Idempotency-Key"

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	CartID         string                              `json:"cart_id" binding:"required"`
	CustomerName   string                              `json:"customer_name"`
	ContactHandle  string                              `json:"contact_handle"`
	Notes          string                              `json:"notes"`
	IdempotencyKey string                              `json:"idempotency_key"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

func (r CheckoutRequest) toServiceInput(c *gin.Context, userID *uint) service.CheckoutInput {
	key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(r.IdempotencyKey)
	}
	return service.CheckoutInput{
		UserID:         userID,
		CartID:         strings.TrimSpace(r.CartID),
		CustomerName:   r.CustomerName,
		ContactHandle:  r.ContactHandle,
		Notes:          r.Notes,
		IdempotencyKey: key,
		Captcha:        r.CaptchaPayload.ToServicePayload(),
		ClientIP:       c.ClientIP(),
	}
}

// GuestCheckout 游客下单
func (h *Handler) GuestCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.checkout(c, req.toServiceInput(c, nil))
}

// Checkout 登录顾客下单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.checkout(c, req.toServiceInput(c, &uid))
}

func (h *Handler) checkout(c *gin.Context, input service.CheckoutInput) {
	result, err := h.CheckoutService.Checkout(c.Request.Context(), input)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	if !result.Replayed {
		requestLog(c).Infow("checkout_order_created",
			"order_code", result.Order.OrderCode,
			"mode", result.Order.Mode,
			"guest", input.UserID == nil,
		)
	}
	response.Success(c, result)
}

// GetGuestOrder 游客按订单号与联系方式查询订单
func (h *Handler) GetGuestOrder(c *gin.Context) {
	contact := strings.TrimSpace(c.Query("contact"))
	if contact == "" {
		respondError(c, response.CodeBadRequest, "error.contact_handle_required", nil)
		return
	}
	order, err := h.OrderService.GetGuestOrder(c.Param("code"), contact)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// ListMyOrders 我的订单
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	orders, total, err := h.OrderService.ListMine(uid, page, pageSize)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetMyOrder 我的订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByCodeForActor(actor, c.Param("code"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelMyOrder 取消待确认订单
func (h *Handler) CancelMyOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	order, err := h.OrderService.Cancel(c.Request.Context(), actor, c.Param("code"))
	if err != nil {
		rules := handlershared.ConcatMappedErrors(handlershared.OrderErrorRules, handlershared.CommonErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}
