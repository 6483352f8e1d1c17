package public

import (
	"github.com/groupvial/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetImageCaptcha 游客下单图片验证码；未开启时只返回 required=false
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if !h.Config.Order.RequireGuestCaptcha {
		response.Success(c, gin.H{"required": false})
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "error.captcha_generate_failed", err)
		return
	}
	response.Success(c, gin.H{
		"required":     true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
		"expires_in":   challenge.ExpiresIn,
	})
}
