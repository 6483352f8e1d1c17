package service

import (
	"context"
	"strings"
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/events"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/metrics"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/queue"
	"github.com/groupvial/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	batchRepo    repository.BatchRepository
	regionRepo   repository.RegionRepository
	batchService *BatchService
	queueClient  queue.Enqueuer
	publisher    events.Publisher
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, batchRepo repository.BatchRepository, regionRepo repository.RegionRepository, batchService *BatchService, queueClient queue.Enqueuer, publisher events.Publisher) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		batchRepo:    batchRepo,
		regionRepo:   regionRepo,
		batchService: batchService,
		queueClient:  queueClient,
		publisher:    publisher,
	}
}

// GetByCodeForActor 按订单编号获取，无权访问时视为不存在
func (s *OrderService) GetByCodeForActor(actor Actor, code string) (*models.Order, error) {
	order, err := s.orderRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.canView(actor, order); err != nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForActor 按ID获取订单
func (s *OrderService) GetForActor(actor Actor, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.canView(actor, order); err != nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetGuestOrder 游客凭订单编号与联系方式查询
func (s *OrderService) GetGuestOrder(code, contactHandle string) (*models.Order, error) {
	contactHandle = strings.TrimSpace(contactHandle)
	if contactHandle == "" {
		return nil, ErrContactHandleRequired
	}
	order, err := s.orderRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if order == nil || !strings.EqualFold(strings.TrimSpace(order.ContactHandle), contactHandle) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForActor 订单列表：管理员全部，团长限本区域，顾客限本人
func (s *OrderService) ListForActor(actor Actor, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsHost():
		regionIDs, err := s.hostedRegionIDs(actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		if len(regionIDs) == 0 {
			return []models.Order{}, 0, nil
		}
		filter.RegionIDs = regionIDs
		filter.UserID = 0
	default:
		if actor.UserID == 0 {
			return nil, 0, ErrForbidden
		}
		filter.UserID = actor.UserID
		filter.RegionIDs = nil
	}
	return s.orderRepo.List(filter)
}

// ListMine 顾客本人订单
func (s *OrderService) ListMine(userID uint, page, pageSize int) ([]models.Order, int64, error) {
	return s.ListForActor(Actor{UserID: userID, Role: constants.RoleCustomer}, repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
	})
}

// Cancel 顾客取消自己的待确认订单
func (s *OrderService) Cancel(ctx context.Context, actor Actor, code string) (*models.Order, error) {
	order, err := s.GetByCodeForActor(actor, code)
	if err != nil {
		return nil, err
	}
	if order.Status == constants.OrderStatusCancelled {
		return order, nil
	}
	if !actor.IsAdmin() && !actor.IsHost() && order.Status != constants.OrderStatusPending {
		return nil, ErrOrderCannotCancel
	}
	return s.transition(ctx, actor, order, constants.OrderStatusCancelled)
}

// UpdateStatus 后台更新订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, target string) (*models.Order, error) {
	order, err := s.loadManaged(actor, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, order, strings.TrimSpace(target))
}

// UpdatePaymentStatus 后台标记收款或退款
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, actor Actor, id uint, target string) (*models.Order, error) {
	order, err := s.loadManaged(actor, id)
	if err != nil {
		return nil, err
	}
	target = strings.TrimSpace(target)
	if order.PaymentStatus == target {
		return order, nil
	}
	if !isTransitionAllowed(allowedPaymentTransitions, order.PaymentStatus, target) {
		return nil, ErrPaymentStatusInvalid
	}
	if target == constants.PaymentStatusPaid && order.Status == constants.OrderStatusCancelled {
		return nil, ErrPaymentStatusInvalid
	}
	updates := map[string]interface{}{"updated_at": time.Now()}
	if target == constants.PaymentStatusPaid {
		updates["paid_at"] = time.Now()
	}
	affected, err := s.orderRepo.UpdatePaymentStatus(order.ID, order.PaymentStatus, target, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrOrderUpdateConflicted
	}
	logger.Infow("order_payment_status_changed",
		"order_id", order.ID,
		"from", order.PaymentStatus,
		"to", target,
		"actor_user_id", actor.UserID,
	)
	return s.orderRepo.GetByID(order.ID)
}

// transition 状态变更；取消时在同一事务内释放批次容量
func (s *OrderService) transition(ctx context.Context, actor Actor, order *models.Order, target string) (*models.Order, error) {
	if target == "" {
		return nil, ErrOrderStatusInvalid
	}
	if order.Status == target {
		return order, nil
	}
	if !isTransitionAllowed(allowedOrderTransitions, order.Status, target) {
		if target == constants.OrderStatusCancelled {
			return nil, ErrOrderCannotCancel
		}
		return nil, ErrOrderStatusInvalid
	}
	from := order.Status
	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if column := orderStatusTimeColumn(target); column != "" {
		updates[column] = now
	}

	var released *models.Batch
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).TransitionStatus(order.ID, from, target, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderUpdateConflicted
		}
		if target != constants.OrderStatusCancelled || order.BatchID == nil {
			return nil
		}
		batchRepo := s.batchRepo.WithTx(tx)
		batch, err := batchRepo.GetByID(*order.BatchID)
		if err != nil {
			return err
		}
		if batch == nil || !BatchAcceptsOrders(batch.Status) {
			return nil
		}
		vials := 0
		for _, item := range order.Items {
			if item.BatchProductID == nil {
				continue
			}
			affected, err := batchRepo.ReleaseVials(batch.ID, *item.BatchProductID, item.VialQuantity)
			if err != nil {
				return err
			}
			if affected > 0 {
				vials += item.VialQuantity
			}
		}
		if err := batchRepo.AdjustBatchVials(batch.ID, -vials); err != nil {
			return err
		}
		released, err = batchRepo.GetByIDWithProducts(batch.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrderTransition(from, target)
	logger.Infow("order_status_changed",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"from", from,
		"to", target,
		"actor_user_id", actor.UserID,
	)
	s.dispatchStatusChanged(ctx, order, from, target)
	if released != nil && s.batchService != nil {
		s.batchService.PublishProgress(ctx, released)
	}
	return s.orderRepo.GetByID(order.ID)
}

func (s *OrderService) dispatchStatusChanged(ctx context.Context, order *models.Order, from, to string) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderStatusChanged(queue.OrderStatusChangedPayload{
			OrderID: order.ID,
			From:    from,
			To:      to,
		})
		if err != nil {
			logger.Warnw("order_enqueue_status_changed_failed", "order_id", order.ID, "status", to, "error", err)
		}
		return
	}
	if s.publisher != nil && s.publisher.Enabled() {
		payload := map[string]interface{}{
			"order_id":   order.ID,
			"order_code": order.OrderCode,
			"from":       from,
			"to":         to,
		}
		if err := s.publisher.PublishOrder(ctx, constants.EventOrderStatusChanged, order.OrderCode, payload); err != nil {
			logger.Warnw("order_publish_status_changed_failed", "order_id", order.ID, "error", err)
		}
	}
}

// loadManaged 后台操作：管理员任意订单，团长仅本区域订单
func (s *OrderService) loadManaged(actor Actor, id uint) (*models.Order, error) {
	if !actor.IsAdmin() && !actor.IsHost() {
		return nil, ErrForbidden
	}
	return s.GetForActor(actor, id)
}

func (s *OrderService) canView(actor Actor, order *models.Order) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsHost():
		if order.RegionID == nil {
			return ErrForbidden
		}
		regionIDs, err := s.hostedRegionIDs(actor.UserID)
		if err != nil {
			return err
		}
		for _, id := range regionIDs {
			if id == *order.RegionID {
				return nil
			}
		}
		return ErrForbidden
	default:
		if actor.UserID != 0 && order.UserID != nil && *order.UserID == actor.UserID {
			return nil
		}
		return ErrForbidden
	}
}

func (s *OrderService) hostedRegionIDs(userID uint) ([]uint, error) {
	regions, err := s.regionRepo.ListByHost(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(regions))
	for _, region := range regions {
		ids = append(ids, region.ID)
	}
	return ids, nil
}
