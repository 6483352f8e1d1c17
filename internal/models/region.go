package models

import (
	"time"

	"gorm.io/gorm"
)

// Region 区域子团（团长负责的地区）
type Region struct {
	ID            uint           `gorm:"primarykey" json:"id"`                    // 主键
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`        // 唯一标识
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`  // 名称
	HostUserID    *uint          `gorm:"index" json:"host_user_id,omitempty"`     // 团长用户ID
	ContactHandle string         `gorm:"type:varchar(200)" json:"contact_handle"` // 团长联系方式
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`     // 是否启用
	CreatedAt     time.Time      `json:"created_at"`                              // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                              // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间

	Host *User `gorm:"foreignKey:HostUserID" json:"host,omitempty"` // 团长
}

// TableName 指定表名
func (Region) TableName() string {
	return "sub_groups"
}
