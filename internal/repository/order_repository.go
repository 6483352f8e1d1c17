package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/groupvial/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByCode(code string) (*models.Order, error)
	GetByIdempotencyKey(key string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	TransitionStatus(id uint, from, to string, updates map[string]interface{}) (int64, error)
	UpdatePaymentStatus(id uint, from, to string, updates map[string]interface{}) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *GormOrderRepository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByCode 根据订单编号获取订单
func (r *GormOrderRepository) GetByCode(code string) (*models.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return r.first(r.db.Where("order_code = ?", code))
}

// GetByIdempotencyKey 根据幂等键获取订单
func (r *GormOrderRepository) GetByIdempotencyKey(key string) (*models.Order, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	return r.first(r.db.Where("idempotency_key = ?", key))
}

// List 订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if len(filter.RegionIDs) > 0 {
		query = query.Where("region_id IN ?", filter.RegionIDs)
	}
	if filter.Mode != "" {
		query = query.Where("mode = ?", filter.Mode)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if code := strings.TrimSpace(filter.OrderCode); code != "" {
		query = query.Where("order_code LIKE ?", "%"+code+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Preload("Items").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// TransitionStatus 按期望的当前状态切换订单状态
func (r *GormOrderRepository) TransitionStatus(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	return r.conditionalUpdate(id, "status", from, to, updates)
}

// UpdatePaymentStatus 按期望的当前支付状态切换支付状态
func (r *GormOrderRepository) UpdatePaymentStatus(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	return r.conditionalUpdate(id, "payment_status", from, to, updates)
}

func (r *GormOrderRepository) conditionalUpdate(id uint, column, from, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates[column] = to
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		Where(column+" = ?", from).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
