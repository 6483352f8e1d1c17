package models

import "time"

// Setting 站点设置表（键值对存储）
type Setting struct {
	Key       string    `gorm:"primarykey;type:varchar(100)" json:"key"` // 配置键
	ValueJSON JSON      `gorm:"type:json" json:"value"`                  // 配置值
	UpdatedAt time.Time `json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (Setting) TableName() string {
	return "site_settings"
}
