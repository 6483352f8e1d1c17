package admin

import (
	"strings"

	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetSetting 获取设置
func (h *Handler) GetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "error.setting_fetch_failed", err)
		return
	}
	if value == nil {
		value = map[string]interface{}{}
	}
	response.Success(c, value)
}

// UpdateSetting 更新设置
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	value, err := h.SettingService.Update(c.Request.Context(), key, req)
	if err != nil {
		handlershared.RespondWithMappedError(c, err, handlershared.SettingErrorRules, response.CodeInternal, "error.setting_update_failed")
		return
	}

	requestLog(c).Infow("admin_setting_updated", "key", key, "operator_user_id", c.GetUint("user_id"))
	response.Success(c, value)
}
