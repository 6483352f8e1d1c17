package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/events"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/metrics"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/provider"
	"github.com/groupvial/internal/queue"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"

	"github.com/hibiken/asynq"
)

// OrderLoader 订单读取
type OrderLoader interface {
	GetByID(id uint) (*models.Order, error)
}

// BatchFiller 满团处理
type BatchFiller interface {
	Get(id uint) (*models.Batch, error)
	MarkFilled(ctx context.Context, batchID uint) (bool, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	orders    OrderLoader
	batches   BatchFiller
	batchRepo repository.BatchRepository
	publisher events.Publisher
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return nil
	}
	return &Consumer{
		orders:    c.OrderRepo,
		batches:   c.BatchService,
		batchRepo: c.BatchRepo,
		publisher: c.Publisher,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCreated, c.instrument(queue.TaskOrderCreated, c.handleOrderCreated))
	mux.HandleFunc(queue.TaskOrderStatusChanged, c.instrument(queue.TaskOrderStatusChanged, c.handleOrderStatusChanged))
	mux.HandleFunc(queue.TaskBatchFilled, c.instrument(queue.TaskBatchFilled, c.handleBatchFilled))
}

func (c *Consumer) instrument(name string, fn asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		err := fn(ctx, task)
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.IncTask(name, result)
		return err
	}
}

func (c *Consumer) handleOrderCreated(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_created_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_created_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_created_skip_invalid_payload", "order_code", payload.OrderCode)
		return nil
	}
	order, err := c.orders.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_created_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_created_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if !c.publishEnabled() {
		logger.Debugw("worker_order_created_skip_publisher_disabled", "order_id", order.ID)
		return nil
	}
	if err := c.publisher.PublishOrder(ctx, constants.EventOrderCreated, order.OrderCode, order); err != nil {
		logger.Warnw("worker_order_created_publish_failed",
			"order_id", order.ID,
			"order_code", order.OrderCode,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.To == "" {
		logger.Debugw("worker_order_status_changed_skip_invalid_payload", "order_id", payload.OrderID, "to", payload.To)
		return nil
	}
	order, err := c.orders.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_changed_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_changed_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if !c.publishEnabled() {
		return nil
	}
	data := map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"from":       payload.From,
		"to":         payload.To,
		"status":     order.Status,
	}
	if err := c.publisher.PublishOrder(ctx, constants.EventOrderStatusChanged, order.OrderCode, data); err != nil {
		logger.Warnw("worker_order_status_changed_publish_failed",
			"order_id", order.ID,
			"to", payload.To,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleBatchFilled(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_batch_filled_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BatchFilledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_batch_filled_unmarshal_failed", "error", err)
		return err
	}
	if payload.BatchID == 0 {
		logger.Debugw("worker_batch_filled_skip_invalid_payload")
		return nil
	}
	return c.fillBatch(ctx, payload.BatchID)
}

// fillBatch 推进满团批次并发布事件，未满或已推进时静默跳过
func (c *Consumer) fillBatch(ctx context.Context, batchID uint) error {
	changed, err := c.batches.MarkFilled(ctx, batchID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			logger.Debugw("worker_batch_filled_skip_not_found", "batch_id", batchID)
			return nil
		}
		logger.Warnw("worker_batch_filled_mark_failed", "batch_id", batchID, "error", err)
		return err
	}
	if !changed {
		logger.Debugw("worker_batch_filled_skip_unchanged", "batch_id", batchID)
		return nil
	}
	if !c.publishEnabled() {
		return nil
	}
	batch, err := c.batches.Get(batchID)
	if err != nil {
		logger.Warnw("worker_batch_filled_fetch_failed", "batch_id", batchID, "error", err)
		return nil
	}
	data := map[string]interface{}{
		"batch_id":      batch.ID,
		"name":          batch.Name,
		"kind":          batch.Kind,
		"status":        batch.Status,
		"target_vials":  batch.TargetVials,
		"current_vials": batch.CurrentVials,
		"filled_at":     batch.FilledAt,
	}
	if err := c.publisher.PublishBatch(ctx, constants.EventBatchFilled, batch.ID, data); err != nil {
		// 状态已推进，重试不会再次发布
		logger.Warnw("worker_batch_filled_publish_failed", "batch_id", batch.ID, "error", err)
	}
	return nil
}

// sweepFilledBatches 巡检全部活动批次，补偿遗漏的满团任务
func (c *Consumer) sweepFilledBatches(ctx context.Context) {
	if c == nil || c.batchRepo == nil {
		return
	}
	complete, err := c.completeActiveBatchIDs(ctx)
	if err != nil {
		logger.Warnw("worker_batch_sweep_list_failed", "error", err)
		return
	}
	// 先收集再推进，推进后的批次会离开 active 列表
	for _, id := range complete {
		if ctx.Err() != nil {
			return
		}
		if err := c.fillBatch(ctx, id); err != nil {
			logger.Warnw("worker_batch_sweep_fill_failed", "batch_id", id, "error", err)
		}
	}
}

func (c *Consumer) completeActiveBatchIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batches, total, err := c.batchRepo.List(repository.BatchListFilter{
			Page:         page,
			PageSize:     sweepPageSize,
			Statuses:     []string{constants.BatchStatusActive},
			WithProducts: true,
		})
		if err != nil {
			return nil, err
		}
		for i := range batches {
			if len(batches[i].Products) > 0 && service.IsBatchComplete(batches[i].Products) {
				ids = append(ids, batches[i].ID)
			}
		}
		if len(batches) < sweepPageSize || int64(page*sweepPageSize) >= total {
			return ids, nil
		}
	}
}

func (c *Consumer) publishEnabled() bool {
	return c.publisher != nil && c.publisher.Enabled()
}
