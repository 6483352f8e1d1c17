package models

import "time"

// OrderItem 订单项表
type OrderItem struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                        // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                              // 订单ID
	ProductID      uint      `gorm:"index;not null" json:"product_id"`                            // 商品ID
	BatchProductID *uint     `gorm:"index" json:"batch_product_id,omitempty"`                     // 批次成员ID
	ProductName    string    `gorm:"type:varchar(200);not null" json:"product_name"`              // 商品名称快照
	Unit           string    `gorm:"type:varchar(10);not null" json:"unit"`                       // vial / box
	Quantity       int       `gorm:"not null" json:"quantity"`                                    // 数量（按单位）
	VialQuantity   int       `gorm:"not null" json:"vial_quantity"`                               // 折算支数
	PricePerVial   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_per_vial"` // 下单时单价
	UnitPrice      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`     // 单位价格
	TotalPrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`    // 小计
	CreatedAt      time.Time `json:"created_at"`                                                  // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
