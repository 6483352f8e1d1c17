package repository

import (
	"time"

	"gorm.io/gorm"
)

// maxListPageSize 单次查询上限，后台巡检也受此约束
const maxListPageSize = 500

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Search     string
	OnlyActive bool
}

// BatchListFilter 查询批次列表的过滤条件
type BatchListFilter struct {
	Page         int
	PageSize     int
	Kind         string
	Statuses     []string
	RegionID     uint
	RegionIDs    []uint
	OwnerUserID  uint
	WithProducts bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	BatchID       uint
	RegionIDs     []uint
	Mode          string
	Status        string
	PaymentStatus string
	OrderCode     string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Role     string
}

// applyPagination 应用分页；pageSize 为 0 表示不分页
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
