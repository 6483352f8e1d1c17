package repository

import (
	"errors"

	"github.com/groupvial/internal/models"

	"gorm.io/gorm"
)

// RegionRepository 区域数据访问接口
type RegionRepository interface {
	Create(region *models.Region) error
	Update(region *models.Region) error
	Delete(id uint) error
	GetByID(id uint) (*models.Region, error)
	GetBySlug(slug string) (*models.Region, error)
	List(onlyActive bool) ([]models.Region, error)
	ListByHost(userID uint) ([]models.Region, error)
	WithTx(tx *gorm.DB) RegionRepository
}

// GormRegionRepository GORM 实现
type GormRegionRepository struct {
	db *gorm.DB
}

// NewRegionRepository 创建区域仓库
func NewRegionRepository(db *gorm.DB) *GormRegionRepository {
	return &GormRegionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRegionRepository) WithTx(tx *gorm.DB) RegionRepository {
	if tx == nil {
		return r
	}
	return &GormRegionRepository{db: tx}
}

// Create 创建区域
func (r *GormRegionRepository) Create(region *models.Region) error {
	if err := r.db.Create(region).Error; err != nil {
		return err
	}
	// is_active 带默认值，零值需要单独写入
	if !region.IsActive {
		return r.db.Model(region).Update("is_active", false).Error
	}
	return nil
}

// Update 更新区域
func (r *GormRegionRepository) Update(region *models.Region) error {
	return r.db.Omit("Host").Save(region).Error
}

// Delete 删除区域
func (r *GormRegionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Region{}, id).Error
}

// GetByID 根据 ID 获取区域
func (r *GormRegionRepository) GetByID(id uint) (*models.Region, error) {
	var region models.Region
	if err := r.db.Preload("Host").First(&region, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

// GetBySlug 根据 slug 获取区域
func (r *GormRegionRepository) GetBySlug(slug string) (*models.Region, error) {
	var region models.Region
	if err := r.db.Where("slug = ?", slug).First(&region).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

// List 区域列表
func (r *GormRegionRepository) List(onlyActive bool) ([]models.Region, error) {
	query := r.db.Model(&models.Region{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var regions []models.Region
	if err := query.Order("name ASC").Find(&regions).Error; err != nil {
		return nil, err
	}
	return regions, nil
}

// ListByHost 列出团长负责的区域
func (r *GormRegionRepository) ListByHost(userID uint) ([]models.Region, error) {
	var regions []models.Region
	if err := r.db.Where("host_user_id = ?", userID).Order("name ASC").Find(&regions).Error; err != nil {
		return nil, err
	}
	return regions, nil
}
