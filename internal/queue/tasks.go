package queue

import (
	"encoding/json"

	"github.com/tilafu/affiliate-drive/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 站内通知投递任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskDriveUnfreezeRecheck 冻结会话复查任务
	TaskDriveUnfreezeRecheck = constants.TaskDriveUnfreezeRecheck
)

// NotificationDispatchPayload 站内通知任务载荷
type NotificationDispatchPayload struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// DriveUnfreezeRecheckPayload 冻结会话复查任务载荷
type DriveUnfreezeRecheckPayload struct {
	UserID uint `json:"user_id"`
}

// NewNotificationDispatchTask 创建站内通知任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewDriveUnfreezeRecheckTask 创建冻结会话复查任务
func NewDriveUnfreezeRecheckTask(payload DriveUnfreezeRecheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDriveUnfreezeRecheck, body), nil
}
