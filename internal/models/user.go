package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户影子表（身份由外部认证提供，角色由本系统维护）
type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                     // 主键
	AuthSubject   string         `gorm:"uniqueIndex;type:varchar(191);not null" json:"-"`          // 认证提供方用户标识
	Email         string         `gorm:"type:varchar(191);index" json:"email"`                     // 邮箱
	Name          string         `gorm:"type:varchar(200)" json:"name"`                            // 名称
	Role          string         `gorm:"type:varchar(20);not null;default:'customer'" json:"role"` // 角色
	ContactHandle string         `gorm:"type:varchar(200)" json:"contact_handle"`                  // 默认联系方式
	LastSeenAt    *time.Time     `json:"last_seen_at"`                                             // 最近访问
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                               // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
