package service

import (
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/queue"
	"github.com/tilafu/affiliate-drive/internal/repository"
)

// NotificationService 用户通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	queueClient      *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, queueClient: queueClient}
}

// Dispatch 投递通知，队列可用时异步落库否则同步写入
func (s *NotificationService) Dispatch(userID uint, notificationType, title, body string) error {
	if userID == 0 {
		return ErrNotFound
	}
	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueNotificationDispatch(queue.NotificationDispatchPayload{
			UserID: userID,
			Type:   notificationType,
			Title:  title,
			Body:   body,
		})
	}
	return s.Deliver(userID, notificationType, title, body)
}

// Deliver 落库通知（队列消费端与同步路径共用）
func (s *NotificationService) Deliver(userID uint, notificationType, title, body string) error {
	if userID == 0 {
		return ErrNotFound
	}
	resolvedType := strings.TrimSpace(notificationType)
	if resolvedType == "" {
		resolvedType = constants.NotificationTypeAdminMessage
	}
	notification := &models.Notification{
		UserID:    userID,
		Type:      resolvedType,
		Title:     strings.TrimSpace(title),
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return err
	}
	logger.Debugw("notification_delivered", "user_id", userID, "type", resolvedType)
	return nil
}

// List 分页查询用户通知
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.notificationRepo.List(filter)
}

// MarkRead 标记通知已读
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	if userID == 0 || notificationID == 0 {
		return ErrNotFound
	}
	notification, err := s.notificationRepo.GetByID(notificationID)
	if err != nil {
		return err
	}
	if notification == nil || notification.UserID != userID {
		return ErrNotFound
	}
	return s.notificationRepo.MarkRead(userID, notificationID)
}

// CountUnread 统计未读通知数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	return s.notificationRepo.CountUnread(userID)
}
