package admin

import (
	"strings"

	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/repository"

	"github.com/gin-gonic/gin"
)

// SetUserRoleRequest 修改用户角色请求
type SetUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, users, handlershared.BuildPagination(page, pageSize, total))
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.UserService.GetByID(id)
	if err != nil {
		respondUserError(c, err, "error.user_fetch_failed")
		return
	}

	response.Success(c, user)
}

// SetUserRole 修改用户角色
func (h *Handler) SetUserRole(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SetUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserService.SetRole(actor, id, req.Role)
	if err != nil {
		respondUserError(c, err, "error.user_update_failed")
		return
	}

	response.Success(c, user)
}
