package public

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var cartErrorRules = []mappedHandlerError{
	{Target: service.ErrCartNotFound, Code: response.CodeNotFound, Key: "error.cart_not_found"},
	{Target: service.ErrInvalidCartLine, Code: response.CodeBadRequest, Key: "error.cart_line_invalid"},
	{Target: service.ErrTooManyLines, Code: response.CodeBadRequest, Key: "error.cart_too_many_lines"},
	{Target: service.ErrProductNotAvailable, Code: response.CodeBadRequest, Key: "error.product_not_available"},
}

var regionPublicErrorRules = []mappedHandlerError{
	{Target: service.ErrRegionNotFound, Code: response.CodeNotFound, Key: "error.region_not_found"},
	{Target: service.ErrFeatureDisabled, Code: response.CodeForbidden, Key: "error.feature_disabled"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}

func respondCartError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedErrors(cartErrorRules, handlershared.BatchErrorRules, handlershared.CommonErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.cart_save_failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedErrors(
		handlershared.CheckoutErrorRules,
		handlershared.BatchErrorRules,
		handlershared.ProductErrorRules,
		handlershared.CommonErrorRules,
	)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.order_create_failed")
}

func respondOrderError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedErrors(handlershared.OrderErrorRules, handlershared.CommonErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.order_fetch_failed")
}

func respondBatchError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedErrors(handlershared.BatchErrorRules, handlershared.CommonErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.batch_fetch_failed")
}
