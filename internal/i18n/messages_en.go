package i18n

var messagesEN = map[string]string{
	// 通用
	"error.bad_request":            "Invalid request parameters",
	"error.unauthorized":           "Please sign in first",
	"error.forbidden":              "You do not have permission to perform this action",
	"error.not_found":              "Resource not found",
	"error.internal":               "Internal server error",
	"error.feature_disabled":       "This feature is currently turned off",
	"error.rate_limited":           "Too many requests, please retry in %d seconds",
	"error.rate_limit_unavailable": "Rate limiter unavailable, please retry later",
	"error.config_fetch_failed":    "Failed to load site configuration",

	// 认证
	"error.auth_header_missing":  "Authorization header is missing",
	"error.auth_header_invalid":  "Authorization header must use the Bearer scheme",
	"error.token_invalid":        "Invalid or expired token",
	"error.user_sync_failed":     "Failed to load your account",
	"error.user_id_type_invalid": "Invalid user id type",

	// 商品
	"error.product_not_found":      "Product not found",
	"error.product_not_available":  "Product is not available",
	"error.product_fetch_failed":   "Failed to load products",
	"error.product_save_failed":    "Failed to save product",
	"error.product_delete_failed":  "Failed to delete product",
	"error.product_price_invalid":  "Product price is invalid",
	"error.slug_exists":            "Slug is already in use",
	"error.image_invalid":          "Image is invalid",
	"error.image_too_large":        "Image exceeds the size limit",
	"error.image_type_not_allowed": "Image type is not allowed",
	"error.upload_failed":          "Upload failed",

	// 批次
	"error.batch_not_found":            "Batch not found",
	"error.batch_fetch_failed":         "Failed to load batches",
	"error.batch_save_failed":          "Failed to save batch",
	"error.batch_not_accepting_orders": "This batch is not accepting orders",
	"error.batch_status_invalid":       "Batch status change is not allowed",
	"error.batch_not_editable":         "Batch has started, products can no longer be removed",
	"error.batch_target_invalid":       "Target vial count is invalid",
	"error.membership_not_found":       "Batch product not found",
	"error.membership_exists":          "Product is already in this batch",
	"error.membership_not_in_batch":    "Product does not belong to this batch",
	"error.capacity_insufficient":      "Not enough vials left in this batch",
	"error.stream_unavailable":         "Live progress is unavailable",

	// 区域
	"error.region_not_found":    "Sub-group not found",
	"error.region_inactive":     "Sub-group is not active",
	"error.region_busy":         "Sub-group already has an open batch",
	"error.region_fetch_failed": "Failed to load sub-groups",
	"error.region_save_failed":  "Failed to save sub-group",

	// 购物车与下单
	"error.cart_not_found":          "Cart not found or expired",
	"error.cart_empty":              "Your cart is empty",
	"error.cart_line_invalid":       "Cart item is invalid",
	"error.cart_too_many_lines":     "Too many items in cart",
	"error.cart_save_failed":        "Failed to update cart",
	"error.customer_name_required":  "Customer name is required",
	"error.contact_handle_required": "Contact handle is required",
	"error.idempotency_conflict":    "Idempotency key was already used by another request",
	"error.order_create_failed":     "Failed to place order",
	"error.captcha_required":        "Captcha is required",
	"error.captcha_invalid":         "Captcha is incorrect",
	"error.captcha_generate_failed": "Failed to generate captcha",

	// 订单
	"error.order_not_found":         "Order not found",
	"error.order_fetch_failed":      "Failed to load orders",
	"error.order_status_invalid":    "Order status change is not allowed",
	"error.order_cannot_cancel":     "Order can no longer be cancelled",
	"error.payment_status_invalid":  "Payment status change is not allowed",
	"error.order_update_conflicted": "Order was updated by someone else, please reload",
	"error.order_update_failed":     "Failed to update order",

	// 用户
	"error.user_not_found":     "User not found",
	"error.role_invalid":       "Role is invalid",
	"error.user_fetch_failed":  "Failed to load users",
	"error.user_update_failed": "Failed to update user",

	// 设置与仪表盘
	"error.setting_invalid":         "Setting is invalid",
	"error.setting_fetch_failed":    "Failed to load settings",
	"error.setting_update_failed":   "Failed to update settings",
	"error.dashboard_fetch_failed":  "Failed to load dashboard",
	"error.dashboard_range_invalid": "Dashboard date range is invalid",
}
