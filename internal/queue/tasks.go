package queue

import (
	"encoding/json"

	"github.com/nutri-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态变更通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
)

// OrderStatusNotifyPayload 订单状态变更通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderStatusNotifyTask 创建订单状态变更通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusNotify, body), nil
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}
