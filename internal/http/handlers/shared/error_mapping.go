package shared

import (
	"errors"

	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 按规则表返回错误，未命中时使用兜底错误并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedErrors 合并多组映射规则。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// CommonErrorRules 通用业务错误
var CommonErrorRules = []MappedError{
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
	{Target: service.ErrInvalidArgument, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrFeatureDisabled, Code: response.CodeForbidden, Key: "error.feature_disabled"},
}

// ProductErrorRules 商品相关错误
var ProductErrorRules = []MappedError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductNotAvailable, Code: response.CodeBadRequest, Key: "error.product_not_available"},
	{Target: service.ErrProductPriceInvalid, Code: response.CodeBadRequest, Key: "error.product_price_invalid"},
	{Target: service.ErrSlugExists, Code: response.CodeConflict, Key: "error.slug_exists"},
	{Target: service.ErrImageInvalid, Code: response.CodeBadRequest, Key: "error.image_invalid"},
	{Target: service.ErrImageTooLarge, Code: response.CodeBadRequest, Key: "error.image_too_large"},
	{Target: service.ErrImageTypeNotAllowed, Code: response.CodeBadRequest, Key: "error.image_type_not_allowed"},
}

// BatchErrorRules 批次相关错误
var BatchErrorRules = []MappedError{
	{Target: service.ErrBatchNotFound, Code: response.CodeNotFound, Key: "error.batch_not_found"},
	{Target: service.ErrBatchNotAcceptingOrders, Code: response.CodeBadRequest, Key: "error.batch_not_accepting_orders"},
	{Target: service.ErrBatchStatusInvalid, Code: response.CodeBadRequest, Key: "error.batch_status_invalid"},
	{Target: service.ErrBatchNotEditable, Code: response.CodeBadRequest, Key: "error.batch_not_editable"},
	{Target: service.ErrBatchTargetInvalid, Code: response.CodeBadRequest, Key: "error.batch_target_invalid"},
	{Target: service.ErrMembershipNotFound, Code: response.CodeNotFound, Key: "error.membership_not_found"},
	{Target: service.ErrMembershipExists, Code: response.CodeConflict, Key: "error.membership_exists"},
	{Target: service.ErrMembershipNotInBatch, Code: response.CodeBadRequest, Key: "error.membership_not_in_batch"},
	{Target: service.ErrCapacityInsufficient, Code: response.CodeConflict, Key: "error.capacity_insufficient"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrRegionNotFound, Code: response.CodeNotFound, Key: "error.region_not_found"},
	{Target: service.ErrRegionInactive, Code: response.CodeBadRequest, Key: "error.region_inactive"},
	{Target: service.ErrRegionBusy, Code: response.CodeConflict, Key: "error.region_busy"},
}

// RegionErrorRules 区域相关错误
var RegionErrorRules = []MappedError{
	{Target: service.ErrRegionNotFound, Code: response.CodeNotFound, Key: "error.region_not_found"},
	{Target: service.ErrRegionInactive, Code: response.CodeBadRequest, Key: "error.region_inactive"},
	{Target: service.ErrRegionBusy, Code: response.CodeConflict, Key: "error.region_busy"},
	{Target: service.ErrSlugExists, Code: response.CodeConflict, Key: "error.slug_exists"},
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
}

// OrderErrorRules 订单相关错误
var OrderErrorRules = []MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
	{Target: service.ErrOrderCannotCancel, Code: response.CodeBadRequest, Key: "error.order_cannot_cancel"},
	{Target: service.ErrPaymentStatusInvalid, Code: response.CodeBadRequest, Key: "error.payment_status_invalid"},
	{Target: service.ErrOrderUpdateConflicted, Code: response.CodeConflict, Key: "error.order_update_conflicted"},
}

// CheckoutErrorRules 下单相关错误
var CheckoutErrorRules = []MappedError{
	{Target: service.ErrCartNotFound, Code: response.CodeNotFound, Key: "error.cart_not_found"},
	{Target: service.ErrEmptyCart, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrInvalidCartLine, Code: response.CodeBadRequest, Key: "error.cart_line_invalid"},
	{Target: service.ErrTooManyLines, Code: response.CodeBadRequest, Key: "error.cart_too_many_lines"},
	{Target: service.ErrCustomerNameRequired, Code: response.CodeBadRequest, Key: "error.customer_name_required"},
	{Target: service.ErrContactHandleRequired, Code: response.CodeBadRequest, Key: "error.contact_handle_required"},
	{Target: service.ErrIdempotencyKeyConflict, Code: response.CodeConflict, Key: "error.idempotency_conflict"},
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
}

// DashboardErrorRules 仪表盘相关错误
var DashboardErrorRules = []MappedError{
	{Target: service.ErrDashboardRangeInvalid, Code: response.CodeBadRequest, Key: "error.dashboard_range_invalid"},
}

// UserErrorRules 用户相关错误
var UserErrorRules = []MappedError{
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
	{Target: service.ErrRoleInvalid, Code: response.CodeBadRequest, Key: "error.role_invalid"},
}

// SettingErrorRules 设置相关错误
var SettingErrorRules = []MappedError{
	{Target: service.ErrSettingInvalid, Code: response.CodeBadRequest, Key: "error.setting_invalid"},
}
