package public

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Name          string `json:"name"`
	ContactHandle string `json:"contact_handle"`
}

// GetMe 当前用户
func (h *Handler) GetMe(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.GetByID(uid)
	if err != nil {
		rules := handlershared.ConcatMappedErrors(handlershared.UserErrorRules, handlershared.CommonErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.user_fetch_failed")
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新昵称与默认联系方式
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	user, err := h.UserService.UpdateProfile(uid, req.Name, req.ContactHandle)
	if err != nil {
		rules := handlershared.ConcatMappedErrors(handlershared.UserErrorRules, handlershared.CommonErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.user_update_failed")
		return
	}
	response.Success(c, user)
}

// GetMyDashboard 顾客仪表盘
func (h *Handler) GetMyDashboard(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	data, err := h.DashboardService.GetCustomerDashboard(actor)
	if err != nil {
		respondError(c, response.CodeInternal, "error.dashboard_fetch_failed", err)
		return
	}
	response.Success(c, data)
}
