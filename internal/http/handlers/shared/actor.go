package shared

import (
	"strings"

	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
)

// GetUserID 读取当前用户 ID，缺失时已写入 401 响应。
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		RespondError(c, response.CodeInternal, "error.user_id_type_invalid", nil)
		return 0, false
	}
	return id, true
}

// GetActor 读取当前操作人，缺失时已写入 401 响应。
func GetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role := strings.TrimSpace(c.GetString(ContextUserRoleKey))
	if role == "" {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: role}, true
}

// OptionalUserID 读取可选用户 ID，游客返回 nil。
func OptionalUserID(c *gin.Context) *uint {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return nil
	}
	if id, ok := value.(uint); ok && id > 0 {
		return &id
	}
	return nil
}
