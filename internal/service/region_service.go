package service

import (
	"context"
	"strings"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
)

// RegionInput 区域参数
type RegionInput struct {
	Slug          string
	Name          string
	ContactHandle string
	HostUserID    *uint
	IsActive      *bool
}

// RegionService 区域子团服务
type RegionService struct {
	regionRepo     repository.RegionRepository
	batchRepo      repository.BatchRepository
	userRepo       repository.UserRepository
	settingService *SettingService
}

// NewRegionService 创建区域服务
func NewRegionService(regionRepo repository.RegionRepository, batchRepo repository.BatchRepository, userRepo repository.UserRepository, settingService *SettingService) *RegionService {
	return &RegionService{
		regionRepo:     regionRepo,
		batchRepo:      batchRepo,
		userRepo:       userRepo,
		settingService: settingService,
	}
}

// ListPublic 启用中的区域，区域功能关闭时拒绝
func (s *RegionService) ListPublic(ctx context.Context) ([]models.Region, error) {
	if err := s.settingService.RequireMode(ctx, constants.PurchaseModeSubGroup); err != nil {
		return nil, err
	}
	return s.regionRepo.List(true)
}

// ListAdmin 全部区域
func (s *RegionService) ListAdmin() ([]models.Region, error) {
	return s.regionRepo.List(false)
}

// ListForHost 团长负责的区域
func (s *RegionService) ListForHost(actor Actor) ([]models.Region, error) {
	if actor.IsAdmin() {
		return s.regionRepo.List(false)
	}
	if !actor.IsHost() {
		return nil, ErrForbidden
	}
	return s.regionRepo.ListByHost(actor.UserID)
}

// GetBySlug 前台区域详情
func (s *RegionService) GetBySlug(ctx context.Context, slug string) (*models.Region, error) {
	if err := s.settingService.RequireMode(ctx, constants.PurchaseModeSubGroup); err != nil {
		return nil, err
	}
	region, err := s.regionRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if region == nil || !region.IsActive {
		return nil, ErrRegionNotFound
	}
	return region, nil
}

// ActiveBatch 区域当前进行中的子团批次，没有时返回 nil
func (s *RegionService) ActiveBatch(regionID uint) (*models.Batch, error) {
	batches, _, err := s.batchRepo.List(repository.BatchListFilter{
		Page:         1,
		PageSize:     1,
		Kind:         constants.BatchKindSubGroup,
		Statuses:     []string{constants.BatchStatusActive, constants.BatchStatusPaymentCollection},
		RegionID:     regionID,
		WithProducts: true,
	})
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}
	return &batches[0], nil
}

// Create 创建区域
func (s *RegionService) Create(input RegionInput) (*models.Region, error) {
	if err := normalizeRegionInput(&input); err != nil {
		return nil, err
	}
	existing, err := s.regionRepo.GetBySlug(input.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugExists
	}
	region := &models.Region{
		Slug:          input.Slug,
		Name:          input.Name,
		ContactHandle: input.ContactHandle,
		IsActive:      true,
	}
	if input.IsActive != nil {
		region.IsActive = *input.IsActive
	}
	if input.HostUserID != nil && *input.HostUserID != 0 {
		if err := s.ensureHost(*input.HostUserID); err != nil {
			return nil, err
		}
		hostID := *input.HostUserID
		region.HostUserID = &hostID
	}
	if err := s.regionRepo.Create(region); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugExists
		}
		return nil, err
	}
	return region, nil
}

// Update 更新区域
func (s *RegionService) Update(id uint, input RegionInput) (*models.Region, error) {
	if err := normalizeRegionInput(&input); err != nil {
		return nil, err
	}
	region, err := s.regionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, ErrRegionNotFound
	}
	if input.Slug != region.Slug {
		existing, err := s.regionRepo.GetBySlug(input.Slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != region.ID {
			return nil, ErrSlugExists
		}
	}
	region.Slug = input.Slug
	region.Name = input.Name
	region.ContactHandle = input.ContactHandle
	if input.IsActive != nil {
		region.IsActive = *input.IsActive
	}
	if err := s.regionRepo.Update(region); err != nil {
		return nil, err
	}
	return region, nil
}

// AssignHost 指派团长，普通用户会被提升为 host
func (s *RegionService) AssignHost(regionID, userID uint) (*models.Region, error) {
	region, err := s.regionRepo.GetByID(regionID)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, ErrRegionNotFound
	}
	if err := s.ensureHost(userID); err != nil {
		return nil, err
	}
	region.HostUserID = &userID
	if err := s.regionRepo.Update(region); err != nil {
		return nil, err
	}
	logger.Infow("region_host_assigned", "region_id", region.ID, "user_id", userID)
	return region, nil
}

// Delete 删除区域，存在进行中的子团批次时拒绝
func (s *RegionService) Delete(id uint) error {
	region, err := s.regionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if region == nil {
		return ErrRegionNotFound
	}
	count, err := s.batchRepo.CountOpenSubGroupBatches(id, 0)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRegionBusy
	}
	return s.regionRepo.Delete(id)
}

func (s *RegionService) ensureHost(userID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Role == constants.RoleCustomer {
		return s.userRepo.UpdateRole(user.ID, constants.RoleHost)
	}
	return nil
}

func normalizeRegionInput(input *RegionInput) error {
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.Name = strings.TrimSpace(input.Name)
	input.ContactHandle = strings.TrimSpace(input.ContactHandle)
	if input.Name == "" || !slugPattern.MatchString(input.Slug) {
		return ErrInvalidArgument
	}
	return nil
}
