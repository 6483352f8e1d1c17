package admin

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondProductError(c *gin.Context, err error, fallbackKey string) {
	rules := handlershared.ConcatMappedErrors(handlershared.ProductErrorRules, handlershared.CommonErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

func respondBatchError(c *gin.Context, err error, fallbackKey string) {
	rules := handlershared.ConcatMappedErrors(handlershared.BatchErrorRules, handlershared.CommonErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

func respondRegionError(c *gin.Context, err error, fallbackKey string) {
	rules := handlershared.ConcatMappedErrors(handlershared.RegionErrorRules, handlershared.CommonErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

func respondOrderError(c *gin.Context, err error, fallbackKey string) {
	rules := handlershared.ConcatMappedErrors(handlershared.OrderErrorRules, handlershared.CommonErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

func respondUserError(c *gin.Context, err error, fallbackKey string) {
	rules := handlershared.ConcatMappedErrors(handlershared.UserErrorRules, handlershared.CommonErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}
