package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderCode      string         `gorm:"uniqueIndex;not null" json:"order_code"`                    // 订单编号
	IdempotencyKey *string        `gorm:"uniqueIndex;type:varchar(100)" json:"-"`                    // 幂等键
	UserID         *uint          `gorm:"index" json:"user_id,omitempty"`                            // 用户ID（游客为空）
	CustomerName   string         `gorm:"type:varchar(200);not null" json:"customer_name"`           // 下单人
	ContactHandle  string         `gorm:"type:varchar(200);not null" json:"contact_handle"`          // 联系方式
	Mode           string         `gorm:"type:varchar(20);not null;index" json:"mode"`               // 购买模式
	BatchID        *uint          `gorm:"index" json:"batch_id,omitempty"`                           // 批次ID（单独购买为空）
	RegionID       *uint          `gorm:"index" json:"region_id,omitempty"`                          // 区域ID（子团）
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"`             // 订单状态
	PaymentStatus  string         `gorm:"type:varchar(20);not null;index" json:"payment_status"`     // 支付状态
	Currency       string         `gorm:"type:varchar(10);not null" json:"currency"`                 // 币种
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 总金额（下单时计算）
	Notes          string         `gorm:"type:text" json:"notes"`                                    // 备注
	ConfirmedAt    *time.Time     `json:"confirmed_at"`                                              // 确认时间
	ShippedAt      *time.Time     `json:"shipped_at"`                                                // 发货时间
	DeliveredAt    *time.Time     `json:"delivered_at"`                                              // 送达时间
	CancelledAt    *time.Time     `json:"cancelled_at"`                                              // 取消时间
	PaidAt         *time.Time     `json:"paid_at"`                                                   // 收款时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
