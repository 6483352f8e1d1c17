package service

import "errors"

// 通用
var (
	ErrForbidden       = errors.New("无权操作该资源")
	ErrInvalidArgument = errors.New("参数无效")
	ErrFeatureDisabled = errors.New("功能未开启")
	ErrUserNotFound    = errors.New("用户不存在")
	ErrRoleInvalid     = errors.New("角色无效")
	ErrSettingInvalid  = errors.New("设置项无效")

	ErrDashboardRangeInvalid = errors.New("统计时间范围无效")
)

// 商品
var (
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductNotAvailable = errors.New("商品未上架")
	ErrProductPriceInvalid = errors.New("商品价格无效")
	ErrSlugExists          = errors.New("slug 已存在")
	ErrImageInvalid        = errors.New("图片无效")
	ErrImageTooLarge       = errors.New("图片超过大小限制")
	ErrImageTypeNotAllowed = errors.New("图片类型不被允许")
)

// 批次
var (
	ErrBatchNotFound           = errors.New("批次不存在")
	ErrBatchNotAcceptingOrders = errors.New("批次当前不接受下单")
	ErrBatchStatusInvalid      = errors.New("批次状态流转无效")
	ErrBatchNotEditable        = errors.New("批次已开始，不能修改成员商品")
	ErrBatchTargetInvalid      = errors.New("目标支数无效")
	ErrMembershipNotFound      = errors.New("批次成员商品不存在")
	ErrMembershipExists        = errors.New("商品已在批次中")
	ErrMembershipNotInBatch    = errors.New("商品不属于该批次")
	ErrCapacityInsufficient    = errors.New("批次剩余容量不足")
)

// 区域
var (
	ErrRegionNotFound = errors.New("区域不存在")
	ErrRegionInactive = errors.New("区域未启用")
	ErrRegionBusy     = errors.New("区域已有进行中的子团批次")
)

// 购物车与下单
var (
	ErrCartNotFound           = errors.New("购物车不存在")
	ErrEmptyCart              = errors.New("购物车为空")
	ErrInvalidCartLine        = errors.New("购物车商品无效")
	ErrTooManyLines           = errors.New("购物车商品过多")
	ErrCustomerNameRequired   = errors.New("下单人姓名不能为空")
	ErrContactHandleRequired  = errors.New("联系方式不能为空")
	ErrIdempotencyKeyConflict = errors.New("幂等键已被其他请求使用")
	ErrOrderCreateFailed      = errors.New("订单创建失败")
	ErrCaptchaRequired        = errors.New("需要验证码")
	ErrCaptchaInvalid         = errors.New("验证码错误")
)

// 订单
var (
	ErrOrderNotFound         = errors.New("订单不存在")
	ErrOrderStatusInvalid    = errors.New("订单状态流转无效")
	ErrOrderCannotCancel     = errors.New("订单当前不能取消")
	ErrPaymentStatusInvalid  = errors.New("支付状态流转无效")
	ErrOrderUpdateConflicted = errors.New("订单已被其他操作更新")
)
