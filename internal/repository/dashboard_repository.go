package repository

import (
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time, regionIDs []uint) (DashboardOverviewRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
	GetOpenBatches(regionIDs []uint, limit int) ([]DashboardBatchRow, error)
	GetCustomerOverview(userID uint) (DashboardCustomerRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal      int64
	PendingOrders    int64
	InProgressOrders int64
	DeliveredOrders  int64
	CancelledOrders  int64
	UnpaidOrders     int64
	PaidAmount       float64
	OpenBatches      int64
	ActiveProducts   int64
	NewUsers         int64
}

// DashboardProductRankingRow 商品排行原始行
type DashboardProductRankingRow struct {
	ProductID   uint
	ProductName string
	Orders      int64
	Vials       int64
	Amount      float64
}

// DashboardBatchRow 进行中批次原始行
type DashboardBatchRow struct {
	BatchID      uint
	Name         string
	Kind         string
	Status       string
	RegionID     *uint
	TargetVials  int
	CurrentVials int
}

// DashboardCustomerRow 顾客个人统计
type DashboardCustomerRow struct {
	OrdersTotal     int64
	OpenOrders      int64
	DeliveredOrders int64
	UnpaidAmount    float64
	PaidAmount      float64
	VialsOrdered    int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func openBatchStatuses() []string {
	return []string{constants.BatchStatusActive, constants.BatchStatusPaymentCollection}
}

// GetOverview 获取总览统计，regionIDs 非空时只统计这些区域的订单与批次
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time, regionIDs []uint) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		q := r.db.Model(&models.Order{}).Where("created_at >= ? AND created_at < ?", startAt, endAt)
		if len(regionIDs) > 0 {
			q = q.Where("region_id IN ?", regionIDs)
		}
		return q
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusPending).Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	inProgress := []string{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, constants.OrderStatusShipped}
	if err := orderBase().Where("status IN ?", inProgress).Count(&result.InProgressOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusCancelled).Count(&result.CancelledOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().
		Where("status <> ? AND payment_status = ?", constants.OrderStatusCancelled, constants.PaymentStatusPending).
		Count(&result.UnpaidOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().
		Where("payment_status = ?", constants.PaymentStatusPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.PaidAmount).Error; err != nil {
		return result, err
	}

	batchQuery := r.db.Model(&models.Batch{}).Where("status IN ?", openBatchStatuses())
	if len(regionIDs) > 0 {
		batchQuery = batchQuery.Where("region_id IN ?", regionIDs)
	}
	if err := batchQuery.Count(&result.OpenBatches).Error; err != nil {
		return result, err
	}

	if len(regionIDs) == 0 {
		if err := r.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&result.ActiveProducts).Error; err != nil {
			return result, err
		}
		if err := r.db.Model(&models.User{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt).
			Count(&result.NewUsers).Error; err != nil {
			return result, err
		}
	}
	return result, nil
}

// GetTopProducts 按认购支数统计商品排行（不含已取消订单）
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []DashboardProductRankingRow
	err := r.db.Table("order_items AS oi").
		Select(`oi.product_id AS product_id,
			MAX(oi.product_name) AS product_name,
			COUNT(DISTINCT oi.order_id) AS orders,
			COALESCE(SUM(oi.vial_quantity), 0) AS vials,
			COALESCE(SUM(oi.total_price), 0) AS amount`).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.deleted_at IS NULL AND o.status <> ?", constants.OrderStatusCancelled).
		Where("o.created_at >= ? AND o.created_at < ?", startAt, endAt).
		Group("oi.product_id").
		Order("vials DESC, product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetOpenBatches 列出进行中批次及其计数，按完成度从高到低
func (r *GormDashboardRepository) GetOpenBatches(regionIDs []uint, limit int) ([]DashboardBatchRow, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.db.Model(&models.Batch{}).
		Select("id AS batch_id, name, kind, status, region_id, target_vials, current_vials").
		Where("status IN ?", openBatchStatuses())
	if len(regionIDs) > 0 {
		query = query.Where("region_id IN ?", regionIDs)
	}
	var rows []DashboardBatchRow
	err := query.
		Order("CASE WHEN target_vials > 0 THEN current_vials * 1.0 / target_vials ELSE 0 END DESC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetCustomerOverview 统计单个顾客的订单情况（不限时间）
func (r *GormDashboardRepository) GetCustomerOverview(userID uint) (DashboardCustomerRow, error) {
	result := DashboardCustomerRow{}
	base := func() *gorm.DB {
		return r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	}
	if err := base().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	open := []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
	}
	if err := base().Where("status IN ?", open).Count(&result.OpenOrders).Error; err != nil {
		return result, err
	}
	if err := base().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := base().
		Where("status <> ? AND payment_status = ?", constants.OrderStatusCancelled, constants.PaymentStatusPending).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.UnpaidAmount).Error; err != nil {
		return result, err
	}
	if err := base().
		Where("payment_status = ?", constants.PaymentStatusPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.PaidAmount).Error; err != nil {
		return result, err
	}
	err := r.db.Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.deleted_at IS NULL AND o.user_id = ? AND o.status <> ?", userID, constants.OrderStatusCancelled).
		Select("COALESCE(SUM(oi.vial_quantity), 0)").
		Scan(&result.VialsOrdered).Error
	return result, err
}
