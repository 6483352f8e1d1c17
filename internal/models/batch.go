package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Batch 拼团批次表（团购批次与区域子团批次共用，按 Kind 区分）
type Batch struct {
	ID              uint            `gorm:"primarykey" json:"id"`                                         // 主键
	Name            string          `gorm:"type:varchar(200);not null" json:"name"`                       // 名称
	Description     string          `gorm:"type:text" json:"description"`                                 // 描述
	Kind            string          `gorm:"type:varchar(20);not null;index" json:"kind"`                  // group_buy / sub_group
	Status          string          `gorm:"type:varchar(32);not null;index" json:"status"`                // 生命周期状态
	TargetVials     int             `gorm:"not null;default:0" json:"target_vials"`                       // 目标支数
	CurrentVials    int             `gorm:"not null;default:0" json:"current_vials"`                      // 已认购支数（与成员行同事务维护）
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"` // 折扣百分比
	StartsAt        *time.Time      `json:"starts_at"`                                                    // 开始时间
	EndsAt          *time.Time      `json:"ends_at"`                                                      // 截止时间
	OwnerUserID     uint            `gorm:"index;not null" json:"owner_user_id"`                          // 创建者（管理员或团长）
	RegionID        *uint           `gorm:"index" json:"region_id,omitempty"`                             // 所属区域（子团）
	FilledAt        *time.Time      `json:"filled_at"`                                                    // 满团时间
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt       time.Time       `json:"updated_at"`                                                   // 更新时间
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`                                               // 软删除时间

	Products []BatchProduct `gorm:"foreignKey:BatchID" json:"products,omitempty"` // 成员商品
	Region   *Region        `gorm:"foreignKey:RegionID" json:"region,omitempty"`  // 区域
}

// TableName 指定表名
func (Batch) TableName() string {
	return "group_buy_batches"
}

// BatchProduct 批次成员商品表（约定单价与认购进度）
type BatchProduct struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                           // 主键
	BatchID      uint      `gorm:"not null;uniqueIndex:idx_batch_product" json:"batch_id"`         // 批次ID
	ProductID    uint      `gorm:"not null;uniqueIndex:idx_batch_product;index" json:"product_id"` // 商品ID
	TargetVials  int       `gorm:"not null;default:0" json:"target_vials"`                         // 目标支数
	CurrentVials int       `gorm:"not null;default:0" json:"current_vials"`                        // 已认购支数
	PricePerVial Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_per_vial"`    // 约定单价
	CreatedAt    time.Time `json:"created_at"`                                                     // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                                     // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品
}

// TableName 指定表名
func (BatchProduct) TableName() string {
	return "group_buy_products"
}
