package service

import (
	"context"
	"strings"
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/metrics"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/queue"
	"github.com/groupvial/internal/realtime"
	"github.com/groupvial/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allowedBatchTransitions 批次状态流转表
var allowedBatchTransitions = map[string]map[string]bool{
	constants.BatchStatusDraft: {
		constants.BatchStatusActive:    true,
		constants.BatchStatusCancelled: true,
	},
	constants.BatchStatusActive: {
		constants.BatchStatusPaymentCollection: true,
		constants.BatchStatusCancelled:         true,
	},
	constants.BatchStatusPaymentCollection: {
		constants.BatchStatusOrdering:  true,
		constants.BatchStatusCancelled: true,
	},
	constants.BatchStatusOrdering: {
		constants.BatchStatusProcessing: true,
		constants.BatchStatusCancelled:  true,
	},
	constants.BatchStatusProcessing: {
		constants.BatchStatusShipped:   true,
		constants.BatchStatusCancelled: true,
	},
	constants.BatchStatusShipped: {
		constants.BatchStatusDelivered: true,
		constants.BatchStatusCancelled: true,
	},
	constants.BatchStatusDelivered: {
		constants.BatchStatusCompleted: true,
		constants.BatchStatusCancelled: true,
	},
}

func isBatchTransitionAllowed(from, to string) bool {
	next, ok := allowedBatchTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// BatchInput 批次基础信息
type BatchInput struct {
	Name            string
	Description     string
	Kind            string
	DiscountPercent decimal.Decimal
	StartsAt        *time.Time
	EndsAt          *time.Time
	RegionID        *uint
}

// BatchProductInput 成员商品参数
type BatchProductInput struct {
	ProductID    uint
	TargetVials  int
	PricePerVial *models.Money
}

// BatchService 批次业务服务
type BatchService struct {
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	regionRepo  repository.RegionRepository
	queueClient queue.Enqueuer
	hub         realtime.Hub
}

// NewBatchService 创建批次服务
func NewBatchService(batchRepo repository.BatchRepository, productRepo repository.ProductRepository, regionRepo repository.RegionRepository, queueClient queue.Enqueuer, hub realtime.Hub) *BatchService {
	return &BatchService{
		batchRepo:   batchRepo,
		productRepo: productRepo,
		regionRepo:  regionRepo,
		queueClient: queueClient,
		hub:         hub,
	}
}

// Get 获取批次（含成员商品）
func (s *BatchService) Get(id uint) (*models.Batch, error) {
	batch, err := s.batchRepo.GetByIDWithProducts(id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

// GetVisible 前台获取批次，草稿不可见
func (s *BatchService) GetVisible(id uint) (*models.Batch, error) {
	batch, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if batch.Status == constants.BatchStatusDraft {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

// Progress 批次进度
func (s *BatchService) Progress(id uint) (BatchProgress, error) {
	batch, err := s.GetVisible(id)
	if err != nil {
		return BatchProgress{}, err
	}
	return ComputeBatchProgress(batch), nil
}

// ListPublic 前台可下单批次
func (s *BatchService) ListPublic(kind string, regionID uint, page, pageSize int) ([]models.Batch, int64, error) {
	return s.batchRepo.List(repository.BatchListFilter{
		Page:         page,
		PageSize:     pageSize,
		Kind:         kind,
		Statuses:     []string{constants.BatchStatusActive, constants.BatchStatusPaymentCollection},
		RegionID:     regionID,
		WithProducts: true,
	})
}

// ListForActor 后台批次列表，团长只能看到自己区域的子团批次
func (s *BatchService) ListForActor(actor Actor, filter repository.BatchListFilter) ([]models.Batch, int64, error) {
	if actor.IsAdmin() {
		return s.batchRepo.List(filter)
	}
	if !actor.IsHost() {
		return nil, 0, ErrForbidden
	}
	regions, err := s.regionRepo.ListByHost(actor.UserID)
	if err != nil {
		return nil, 0, err
	}
	filter.Kind = constants.BatchKindSubGroup
	if filter.RegionID != 0 {
		if !regionHostedBy(regions, filter.RegionID) {
			return nil, 0, ErrForbidden
		}
		return s.batchRepo.List(filter)
	}
	if len(regions) == 0 {
		return []models.Batch{}, 0, nil
	}
	filter.RegionIDs = make([]uint, 0, len(regions))
	for _, region := range regions {
		filter.RegionIDs = append(filter.RegionIDs, region.ID)
	}
	return s.batchRepo.List(filter)
}

// Create 创建草稿批次
func (s *BatchService) Create(actor Actor, input BatchInput) (*models.Batch, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidArgument
	}
	kind := strings.TrimSpace(input.Kind)
	if actor.IsHost() {
		kind = constants.BatchKindSubGroup
	}
	if kind == "" {
		kind = constants.BatchKindGroupBuy
	}
	if err := validateDiscount(input.DiscountPercent); err != nil {
		return nil, err
	}
	batch := &models.Batch{
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		Kind:            kind,
		Status:          constants.BatchStatusDraft,
		DiscountPercent: input.DiscountPercent,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		OwnerUserID:     actor.UserID,
	}
	switch kind {
	case constants.BatchKindGroupBuy:
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
	case constants.BatchKindSubGroup:
		if input.RegionID == nil || *input.RegionID == 0 {
			return nil, ErrRegionNotFound
		}
		if _, err := s.loadManagedRegion(actor, *input.RegionID); err != nil {
			return nil, err
		}
		regionID := *input.RegionID
		batch.RegionID = &regionID
	default:
		return nil, ErrInvalidArgument
	}
	if err := s.batchRepo.Create(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// Update 更新批次基础信息
func (s *BatchService) Update(actor Actor, id uint, input BatchInput) (*models.Batch, error) {
	batch, err := s.loadManaged(actor, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidArgument
	}
	if err := validateDiscount(input.DiscountPercent); err != nil {
		return nil, err
	}
	batch.Name = name
	batch.Description = strings.TrimSpace(input.Description)
	batch.DiscountPercent = input.DiscountPercent
	batch.StartsAt = input.StartsAt
	batch.EndsAt = input.EndsAt
	if batch.Kind == constants.BatchKindSubGroup && input.RegionID != nil && *input.RegionID != 0 && !sameRegion(batch.RegionID, *input.RegionID) {
		if batch.Status != constants.BatchStatusDraft {
			return nil, ErrBatchNotEditable
		}
		if _, err := s.loadManagedRegion(actor, *input.RegionID); err != nil {
			return nil, err
		}
		regionID := *input.RegionID
		batch.RegionID = &regionID
	}
	if err := s.batchRepo.Update(batch); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// AddProduct 添加成员商品，未指定约定单价时按目录价与批次折扣计算
func (s *BatchService) AddProduct(actor Actor, batchID uint, input BatchProductInput) (*models.BatchProduct, error) {
	batch, err := s.loadManaged(actor, batchID)
	if err != nil {
		return nil, err
	}
	if !batchMembershipEditable(batch.Status) {
		return nil, ErrBatchNotEditable
	}
	if input.TargetVials <= 0 {
		return nil, ErrBatchTargetInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	price := product.PricePerVial.ApplyDiscountPercent(batch.DiscountPercent)
	if input.PricePerVial != nil {
		price = *input.PricePerVial
	}
	if !price.IsPositive() {
		return nil, ErrProductPriceInvalid
	}

	item := &models.BatchProduct{
		BatchID:      batch.ID,
		ProductID:    product.ID,
		TargetVials:  input.TargetVials,
		PricePerVial: price,
	}
	err = s.batchRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.batchRepo.WithTx(tx)
		existing, err := repo.GetProductByPair(batch.ID, product.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrMembershipExists
		}
		if err := repo.CreateProduct(item); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrMembershipExists
			}
			return err
		}
		return repo.SyncTargetVials(batch.ID)
	})
	if err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// UpdateProduct 调整成员商品目标或约定单价，目标不能低于已认购数
func (s *BatchService) UpdateProduct(actor Actor, membershipID uint, input BatchProductInput) (*models.BatchProduct, error) {
	item, batch, err := s.loadManagedMembership(actor, membershipID)
	if err != nil {
		return nil, err
	}
	if !batchMembershipEditable(batch.Status) {
		return nil, ErrBatchNotEditable
	}
	if input.TargetVials > 0 {
		if input.TargetVials < item.CurrentVials {
			return nil, ErrBatchTargetInvalid
		}
		item.TargetVials = input.TargetVials
	}
	if input.PricePerVial != nil {
		if !input.PricePerVial.IsPositive() {
			return nil, ErrProductPriceInvalid
		}
		item.PricePerVial = *input.PricePerVial
	}
	var updated *models.BatchProduct
	err = s.batchRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.batchRepo.WithTx(tx)
		affected, err := repo.UpdateProduct(item)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrBatchTargetInvalid
		}
		if err := repo.SyncTargetVials(batch.ID); err != nil {
			return err
		}
		updated, err = repo.GetProduct(item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMembershipNotFound
	}
	return updated, nil
}

// RemoveProduct 移除成员商品，仅草稿批次允许
func (s *BatchService) RemoveProduct(actor Actor, membershipID uint) error {
	item, batch, err := s.loadManagedMembership(actor, membershipID)
	if err != nil {
		return err
	}
	if batch.Status != constants.BatchStatusDraft {
		return ErrBatchNotEditable
	}
	return s.batchRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.batchRepo.WithTx(tx)
		if err := repo.DeleteProduct(item.ID); err != nil {
			return err
		}
		return repo.SyncTargetVials(batch.ID)
	})
}

// Transition 切换批次状态
func (s *BatchService) Transition(ctx context.Context, actor Actor, id uint, to string) (*models.Batch, error) {
	batch, err := s.loadManaged(actor, id)
	if err != nil {
		return nil, err
	}
	to = strings.TrimSpace(to)
	if !isBatchTransitionAllowed(batch.Status, to) {
		return nil, ErrBatchStatusInvalid
	}
	now := time.Now()
	updates := map[string]interface{}{}
	switch to {
	case constants.BatchStatusActive:
		if len(batch.Products) == 0 || batch.TargetVials <= 0 {
			return nil, ErrBatchTargetInvalid
		}
		if batch.Kind == constants.BatchKindSubGroup && batch.RegionID != nil {
			count, err := s.batchRepo.CountOpenSubGroupBatches(*batch.RegionID, batch.ID)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrRegionBusy
			}
		}
		if batch.StartsAt == nil {
			updates["starts_at"] = now
		}
	case constants.BatchStatusPaymentCollection:
		if batch.FilledAt == nil {
			updates["filled_at"] = now
		}
	}
	affected, err := s.batchRepo.TransitionStatus(batch.ID, batch.Status, to, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrBatchStatusInvalid
	}
	logger.Infow("batch_status_changed",
		"batch_id", batch.ID,
		"from", batch.Status,
		"to", to,
		"actor_user_id", actor.UserID,
	)
	updated, err := s.Get(batch.ID)
	if err != nil {
		return nil, err
	}
	s.PublishProgress(ctx, updated)
	return updated, nil
}

// MarkFilled 满团后将活动批次推进到收款阶段，返回是否发生状态变化
func (s *BatchService) MarkFilled(ctx context.Context, batchID uint) (bool, error) {
	batch, err := s.batchRepo.GetByIDWithProducts(batchID)
	if err != nil {
		return false, err
	}
	if batch == nil {
		return false, ErrBatchNotFound
	}
	if batch.Status != constants.BatchStatusActive || len(batch.Products) == 0 || !IsBatchComplete(batch.Products) {
		return false, nil
	}
	affected, err := s.batchRepo.TransitionStatus(batch.ID, constants.BatchStatusActive, constants.BatchStatusPaymentCollection, map[string]interface{}{
		"filled_at": time.Now(),
	})
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	metrics.IncBatchFilled()
	logger.Infow("batch_filled", "batch_id", batch.ID, "target_vials", batch.TargetVials)
	batch.Status = constants.BatchStatusPaymentCollection
	s.PublishProgress(ctx, batch)
	return true, nil
}

// NotifyIfFilled 满团时投递异步任务；队列未启用时直接处理
func (s *BatchService) NotifyIfFilled(ctx context.Context, batchID uint) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueBatchFilled(queue.BatchFilledPayload{BatchID: batchID}); err != nil {
			logger.Warnw("batch_filled_enqueue_failed", "batch_id", batchID, "error", err)
		}
		return
	}
	if _, err := s.MarkFilled(ctx, batchID); err != nil {
		logger.Warnw("batch_mark_filled_failed", "batch_id", batchID, "error", err)
	}
}

// PublishProgress 推送批次进度
func (s *BatchService) PublishProgress(ctx context.Context, batch *models.Batch) {
	if s.hub == nil || batch == nil {
		return
	}
	view := ComputeBatchProgress(batch)
	event := realtime.Event{
		Type:         constants.EventBatchProgress,
		BatchID:      batch.ID,
		Status:       batch.Status,
		TargetVials:  view.Progress.TargetVials,
		CurrentVials: view.Progress.CurrentVials,
		Percent:      view.Progress.Percent,
		At:           time.Now(),
	}
	if err := s.hub.Publish(ctx, event); err != nil {
		logger.Warnw("batch_progress_publish_failed", "batch_id", batch.ID, "error", err)
	}
}

// CanManage 判断操作人是否可管理批次
func (s *BatchService) CanManage(actor Actor, batch *models.Batch) error {
	if batch == nil {
		return ErrBatchNotFound
	}
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsHost() || batch.Kind != constants.BatchKindSubGroup || batch.RegionID == nil {
		return ErrForbidden
	}
	_, err := s.loadManagedRegion(actor, *batch.RegionID)
	return err
}

func (s *BatchService) loadManaged(actor Actor, id uint) (*models.Batch, error) {
	batch, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.CanManage(actor, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *BatchService) loadManagedMembership(actor Actor, membershipID uint) (*models.BatchProduct, *models.Batch, error) {
	item, err := s.batchRepo.GetProduct(membershipID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, ErrMembershipNotFound
	}
	batch, err := s.loadManaged(actor, item.BatchID)
	if err != nil {
		return nil, nil, err
	}
	return item, batch, nil
}

func (s *BatchService) loadManagedRegion(actor Actor, regionID uint) (*models.Region, error) {
	region, err := s.regionRepo.GetByID(regionID)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, ErrRegionNotFound
	}
	if actor.IsAdmin() {
		return region, nil
	}
	if !actor.IsHost() || region.HostUserID == nil || *region.HostUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return region, nil
}

func batchMembershipEditable(status string) bool {
	return status == constants.BatchStatusDraft || status == constants.BatchStatusActive
}

func validateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidArgument
	}
	return nil
}

func regionHostedBy(regions []models.Region, regionID uint) bool {
	for _, region := range regions {
		if region.ID == regionID {
			return true
		}
	}
	return false
}

func sameRegion(current *uint, next uint) bool {
	return current != nil && *current == next
}
