package queue

import (
	"encoding/json"

	"github.com/groupvial/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderCreated 订单创建后续处理任务
	TaskOrderCreated = constants.TaskOrderCreated
	// TaskOrderStatusChanged 订单状态变更通知任务
	TaskOrderStatusChanged = constants.TaskOrderStatusChanged
	// TaskBatchFilled 批次满团任务
	TaskBatchFilled = constants.TaskBatchFilled
)

// OrderCreatedPayload 订单创建任务载荷
type OrderCreatedPayload struct {
	OrderID   uint   `json:"order_id"`
	OrderCode string `json:"order_code"`
	BatchID   uint   `json:"batch_id,omitempty"`
	Mode      string `json:"mode"`
}

// OrderStatusChangedPayload 订单状态变更任务载荷
type OrderStatusChangedPayload struct {
	OrderID uint   `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// BatchFilledPayload 批次满团任务载荷
type BatchFilledPayload struct {
	BatchID uint `json:"batch_id"`
}

// NewOrderCreatedTask 创建订单创建任务
func NewOrderCreatedTask(payload OrderCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCreated, body), nil
}

// NewOrderStatusChangedTask 创建订单状态变更任务
func NewOrderStatusChangedTask(payload OrderStatusChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusChanged, body), nil
}

// NewBatchFilledTask 创建批次满团任务
func NewBatchFilledTask(payload BatchFilledPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBatchFilled, body), nil
}
