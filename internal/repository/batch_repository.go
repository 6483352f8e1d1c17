package repository

import (
	"errors"
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"

	"gorm.io/gorm"
)

// BatchRepository 批次与成员商品数据访问接口
type BatchRepository interface {
	Create(batch *models.Batch) error
	Update(batch *models.Batch) error
	GetByID(id uint) (*models.Batch, error)
	GetByIDWithProducts(id uint) (*models.Batch, error)
	List(filter BatchListFilter) ([]models.Batch, int64, error)
	TransitionStatus(id uint, from, to string, updates map[string]interface{}) (int64, error)
	CountOpenSubGroupBatches(regionID uint, excludeID uint) (int64, error)

	CreateProduct(item *models.BatchProduct) error
	UpdateProduct(item *models.BatchProduct) (int64, error)
	DeleteProduct(id uint) error
	GetProduct(id uint) (*models.BatchProduct, error)
	GetProductByPair(batchID, productID uint) (*models.BatchProduct, error)
	ListProducts(batchID uint) ([]models.BatchProduct, error)
	SyncTargetVials(batchID uint) error

	ReserveVials(batchID, batchProductID uint, quantity int) (int64, error)
	ReleaseVials(batchID, batchProductID uint, quantity int) (int64, error)
	AdjustBatchVials(batchID uint, delta int) error
	SumProductVials(batchID uint) (current int, target int, err error)

	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) BatchRepository
}

// GormBatchRepository GORM 实现
type GormBatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository 创建批次仓库
func NewBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBatchRepository) WithTx(tx *gorm.DB) BatchRepository {
	if tx == nil {
		return r
	}
	return &GormBatchRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBatchRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建批次
func (r *GormBatchRepository) Create(batch *models.Batch) error {
	return r.db.Create(batch).Error
}

// Update 更新批次基础信息（不含计数与状态）
func (r *GormBatchRepository) Update(batch *models.Batch) error {
	return r.db.Model(&models.Batch{}).Where("id = ?", batch.ID).Updates(map[string]interface{}{
		"name":             batch.Name,
		"description":      batch.Description,
		"discount_percent": batch.DiscountPercent,
		"starts_at":        batch.StartsAt,
		"ends_at":          batch.EndsAt,
		"region_id":        batch.RegionID,
		"updated_at":       time.Now(),
	}).Error
}

// GetByID 根据 ID 获取批次
func (r *GormBatchRepository) GetByID(id uint) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// GetByIDWithProducts 获取批次并预加载成员商品与区域
func (r *GormBatchRepository) GetByIDWithProducts(id uint) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Products.Product").
		Preload("Region").
		First(&batch, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// List 批次列表
func (r *GormBatchRepository) List(filter BatchListFilter) ([]models.Batch, int64, error) {
	query := r.db.Model(&models.Batch{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.RegionID != 0 {
		query = query.Where("region_id = ?", filter.RegionID)
	}
	if len(filter.RegionIDs) > 0 {
		query = query.Where("region_id IN ?", filter.RegionIDs)
	}
	if filter.OwnerUserID != 0 {
		query = query.Where("owner_user_id = ?", filter.OwnerUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithProducts {
		query = query.Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
			Preload("Products.Product")
	}

	var batches []models.Batch
	if err := query.Preload("Region").Order("created_at DESC, id DESC").Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// TransitionStatus 按期望的当前状态切换批次状态，返回受影响行数
func (r *GormBatchRepository) TransitionStatus(id uint, from, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Batch{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountOpenSubGroupBatches 统计区域内尚未结束的子团批次
func (r *GormBatchRepository) CountOpenSubGroupBatches(regionID uint, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Batch{}).
		Where("kind = ? AND region_id = ?", constants.BatchKindSubGroup, regionID).
		Where("status IN ?", []string{constants.BatchStatusActive, constants.BatchStatusPaymentCollection})
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateProduct 新增成员商品
func (r *GormBatchRepository) CreateProduct(item *models.BatchProduct) error {
	return r.db.Create(item).Error
}

// UpdateProduct 更新成员商品的目标与约定单价，已认购数超过新目标时不更新，返回受影响行数
func (r *GormBatchRepository) UpdateProduct(item *models.BatchProduct) (int64, error) {
	result := r.db.Model(&models.BatchProduct{}).
		Where("id = ? AND current_vials <= ?", item.ID, item.TargetVials).
		Updates(map[string]interface{}{
			"target_vials":   item.TargetVials,
			"price_per_vial": item.PricePerVial,
			"updated_at":     time.Now(),
		})
	return result.RowsAffected, result.Error
}

// DeleteProduct 删除成员商品
func (r *GormBatchRepository) DeleteProduct(id uint) error {
	return r.db.Delete(&models.BatchProduct{}, id).Error
}

// GetProduct 根据 ID 获取成员商品
func (r *GormBatchRepository) GetProduct(id uint) (*models.BatchProduct, error) {
	var item models.BatchProduct
	if err := r.db.Preload("Product").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetProductByPair 根据批次与商品获取成员商品
func (r *GormBatchRepository) GetProductByPair(batchID, productID uint) (*models.BatchProduct, error) {
	var item models.BatchProduct
	if err := r.db.Where("batch_id = ? AND product_id = ?", batchID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListProducts 列出批次全部成员商品
func (r *GormBatchRepository) ListProducts(batchID uint) ([]models.BatchProduct, error) {
	var items []models.BatchProduct
	if err := r.db.Preload("Product").Where("batch_id = ?", batchID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SyncTargetVials 以成员商品目标之和回写批次目标
func (r *GormBatchRepository) SyncTargetVials(batchID uint) error {
	_, target, err := r.SumProductVials(batchID)
	if err != nil {
		return err
	}
	return r.db.Model(&models.Batch{}).Where("id = ?", batchID).
		Update("target_vials", target).Error
}

// ReserveVials 在容量内原子占用支数，超出目标时不更新并返回 0
func (r *GormBatchRepository) ReserveVials(batchID, batchProductID uint, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.BatchProduct{}).
		Where("id = ? AND batch_id = ? AND current_vials + ? <= target_vials", batchProductID, batchID, quantity).
		Updates(map[string]interface{}{
			"current_vials": gorm.Expr("current_vials + ?", quantity),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseVials 释放已占用支数，不会减到负数
func (r *GormBatchRepository) ReleaseVials(batchID, batchProductID uint, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.BatchProduct{}).
		Where("id = ? AND batch_id = ? AND current_vials >= ?", batchProductID, batchID, quantity).
		Updates(map[string]interface{}{
			"current_vials": gorm.Expr("current_vials - ?", quantity),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AdjustBatchVials 调整批次汇总计数，只能与成员商品计数在同一事务中调用
func (r *GormBatchRepository) AdjustBatchVials(batchID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	query := r.db.Model(&models.Batch{}).Where("id = ?", batchID)
	if delta < 0 {
		query = query.Where("current_vials >= ?", -delta)
	}
	result := query.Updates(map[string]interface{}{
		"current_vials": gorm.Expr("current_vials + ?", delta),
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumProductVials 汇总成员商品的当前与目标支数
func (r *GormBatchRepository) SumProductVials(batchID uint) (int, int, error) {
	var row struct {
		Current int
		Target  int
	}
	err := r.db.Model(&models.BatchProduct{}).
		Select("COALESCE(SUM(current_vials), 0) AS current, COALESCE(SUM(target_vials), 0) AS target").
		Where("batch_id = ?", batchID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Current, row.Target, nil
}
