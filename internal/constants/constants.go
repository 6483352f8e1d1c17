package constants

// 批次状态常量
const (
	BatchStatusDraft             = "draft"
	BatchStatusActive            = "active"
	BatchStatusPaymentCollection = "payment_collection"
	BatchStatusOrdering          = "ordering"
	BatchStatusProcessing        = "processing"
	BatchStatusShipped           = "shipped"
	BatchStatusDelivered         = "delivered"
	BatchStatusCompleted         = "completed"
	BatchStatusCancelled         = "cancelled"
)

// 批次类型常量
const (
	BatchKindGroupBuy = "group_buy"
	BatchKindSubGroup = "sub_group"
)

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// 购买模式常量
const (
	PurchaseModeIndividual = "individual"
	PurchaseModeGroupBuy   = "group_buy"
	PurchaseModeSubGroup   = "sub_group"
)

// 下单单位常量
const (
	UnitVial = "vial"
	UnitBox  = "box"
)

// 用户角色常量
const (
	RoleAdmin    = "admin"
	RoleHost     = "host"
	RoleCustomer = "customer"
)

// 认证方式常量
const (
	AuthModeAuth0 = "auth0"
	AuthModeLocal = "local"
)

// 存储驱动常量
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// 消息渠道常量
const (
	MessagingWhatsApp  = "whatsapp"
	MessagingTelegram  = "telegram"
	MessagingMessenger = "messenger"
)

// 队列常量
const (
	QueueDefault           = "default"
	QueueCritical          = "critical"
	TaskOrderCreated       = "order:created"
	TaskOrderStatusChanged = "order:status_changed"
	TaskBatchFilled        = "batch:filled"
)

// 事件类型常量
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventBatchFilled        = "batch.filled"
	EventBatchProgress      = "batch.progress"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "gv"
)

// 设置键常量
const (
	SettingKeyFeatureFlags        = "feature_flags"
	SettingKeySiteConfig          = "site_config"
	SettingKeyDashboardConfig     = "dashboard_config"
	SettingFieldRegionsEnabled    = "regions_enabled"
	SettingFieldGroupBuyEnabled   = "group_buy_enabled"
	SettingFieldIndividualEnabled = "individual_purchase_enabled"
	SettingFieldContactHandle     = "contact_handle"
	SettingFieldSiteName          = "site_name"
)

// 币种常量
const (
	SiteCurrencyDefault = "PHP"
	CurrencySymbolPHP   = "₱"
)

// 验证码场景常量
const (
	CaptchaSceneGuestCheckout = "guest_checkout"
)

// 请求头常量
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestID      = "X-Request-ID"
)
