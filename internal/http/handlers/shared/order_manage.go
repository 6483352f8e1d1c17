package shared

import (
	"strings"

	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

func respondOrderError(c *gin.Context, err error, fallbackKey string) {
	RespondWithMappedError(c, err, ConcatMappedErrors(OrderErrorRules, CommonErrorRules), response.CodeInternal, fallbackKey)
}

// ListManagedOrders 按操作人范围列出订单
func ListManagedOrders(c *gin.Context, orders *service.OrderService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	page, pageSize := QueryPagination(c)
	createdFrom, err := ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	items, total, err := orders.ListForActor(actor, repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        QueryUint(c, "user_id"),
		BatchID:       QueryUint(c, "batch_id"),
		Mode:          strings.TrimSpace(c.Query("mode")),
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderCode:     strings.TrimSpace(c.Query("order_code")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondOrderError(c, err, "error.order_fetch_failed")
		return
	}
	response.SuccessWithPage(c, items, BuildPagination(page, pageSize, total))
}

// GetManagedOrder 订单详情
func GetManagedOrder(c *gin.Context, orders *service.OrderService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := orders.GetForActor(actor, id)
	if err != nil {
		respondOrderError(c, err, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// UpdateManagedOrderStatus 修改订单状态
func UpdateManagedOrderStatus(c *gin.Context, orders *service.OrderService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := orders.UpdateStatus(c.Request.Context(), actor, id, strings.TrimSpace(req.Status))
	if err != nil {
		respondOrderError(c, err, "error.order_update_failed")
		return
	}
	RequestLog(c).Infow("order_status_updated", "order_id", order.ID, "status", order.Status, "actor_id", actor.UserID)
	response.Success(c, order)
}

// UpdateManagedOrderPaymentStatus 修改订单付款状态
func UpdateManagedOrderPaymentStatus(c *gin.Context, orders *service.OrderService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := orders.UpdatePaymentStatus(c.Request.Context(), actor, id, strings.TrimSpace(req.Status))
	if err != nil {
		respondOrderError(c, err, "error.order_update_failed")
		return
	}
	RequestLog(c).Infow("order_payment_status_updated", "order_id", order.ID, "payment_status", order.PaymentStatus, "actor_id", actor.UserID)
	response.Success(c, order)
}
