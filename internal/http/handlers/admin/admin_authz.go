package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/groupvial/internal/authz"
	"github.com/groupvial/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GetAuthzMe 获取当前操作人角色与策略快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(actor.Role)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}

	response.Success(c, gin.H{
		"user_id":  actor.UserID,
		"role":     actor.Role,
		"policies": policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if strings.TrimSpace(role) == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}

	requestLog(c).Infow("admin_authz_policy_granted",
		"operator_user_id", c.GetUint("user_id"),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)

	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}

	requestLog(c).Infow("admin_authz_policy_revoked",
		"operator_user_id", c.GetUint("user_id"),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)

	response.Success(c, nil)
}

func respondAuthzError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrUnknownRole):
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
	case errors.Is(err, authz.ErrActionRequired):
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	case errors.Is(err, authz.ErrProtectedPolicy):
		respondError(c, response.CodeForbidden, "error.forbidden", nil)
	default:
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
	}
}

func decodeRoleParam(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
