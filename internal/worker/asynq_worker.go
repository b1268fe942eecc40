package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/provider"
	"github.com/tilafu/affiliate-drive/internal/queue"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskDriveUnfreezeRecheck, c.handleDriveUnfreezeRecheck)
}

func (c *Consumer) handleNotificationDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if err := c.NotificationService.Deliver(payload.UserID, payload.Type, payload.Title, payload.Body); err != nil {
		logger.Warnw("worker_notification_dispatch_failed",
			"user_id", payload.UserID,
			"type", payload.Type,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleDriveUnfreezeRecheck(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_drive_unfreeze_recheck_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DriveUnfreezeRecheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_drive_unfreeze_recheck_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_drive_unfreeze_recheck_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.DriveService == nil {
		logger.Warnw("worker_drive_unfreeze_recheck_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	unfrozen, err := c.DriveService.CheckUnfreeze(payload.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			logger.Debugw("worker_drive_unfreeze_recheck_skip_no_session", "user_id", payload.UserID)
			return nil
		case errors.Is(err, service.ErrDriveItemCorrupted):
			logger.Warnw("worker_drive_unfreeze_recheck_item_corrupted", "user_id", payload.UserID)
			return nil
		default:
			logger.Warnw("worker_drive_unfreeze_recheck_failed", "user_id", payload.UserID, "error", err)
			return err
		}
	}
	logger.Debugw("worker_drive_unfreeze_recheck_done", "user_id", payload.UserID, "unfrozen", unfrozen)
	return nil
}
