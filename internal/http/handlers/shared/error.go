package shared

import (
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/i18n"
	"github.com/groupvial/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回本地化错误响应；带原始错误时记录日志，客户端错误降为告警
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.NewAppError(code, key, i18n.T(i18n.ResolveLocale(c), key), err)
	if err != nil {
		log := RequestLog(c).With(
			"code", appErr.Code,
			"key", appErr.Key,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err,
		)
		if appErr.ClientFault() {
			log.Warnw("handler_error")
		} else {
			log.Errorw("handler_error")
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
