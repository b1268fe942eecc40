package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupNotificationServiceTest(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	notificationRepo := repository.NewNotificationRepository(db)
	return NewNotificationService(notificationRepo, nil), db
}

func TestDispatchFallsBackToSyncDelivery(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	if err := svc.Dispatch(1, constants.NotificationTypeDriveFrozen, "会话已冻结", "余额不足，请联系管理员。"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	var notification models.Notification
	if err := db.First(&notification).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}
	if notification.UserID != 1 || notification.Type != constants.NotificationTypeDriveFrozen {
		t.Fatalf("unexpected notification: %+v", notification)
	}
	if notification.ReadAt != nil {
		t.Fatalf("new notification should be unread")
	}
}

func TestDeliverDefaultsType(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	if err := svc.Deliver(1, "  ", "标题", "正文"); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	var notification models.Notification
	if err := db.First(&notification).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}
	if notification.Type != constants.NotificationTypeAdminMessage {
		t.Fatalf("blank type should default, got %s", notification.Type)
	}

	if err := svc.Deliver(0, "", "标题", "正文"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for zero user, got %v", err)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	if err := svc.Deliver(1, constants.NotificationTypeAdminDeposit, "入金", "到账 100"); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	var notification models.Notification
	if err := db.First(&notification).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}

	// 他人不能读走别人的通知
	if err := svc.MarkRead(2, notification.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := svc.MarkRead(1, notification.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	unread, err := svc.CountUnread(1)
	if err != nil {
		t.Fatalf("count unread failed: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	for i := 0; i < 3; i++ {
		if err := svc.Deliver(1, constants.NotificationTypeAdminMessage, fmt.Sprintf("消息 %d", i+1), "正文"); err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
	}
	var first models.Notification
	if err := db.Order("id ASC").First(&first).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}
	if err := svc.MarkRead(1, first.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	items, total, err := svc.List(repository.NotificationListFilter{UserID: 1, UnreadOnly: true, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 unread, got total=%d len=%d", total, len(items))
	}
	for _, item := range items {
		if item.ReadAt != nil {
			t.Fatalf("unread filter returned read item %d", item.ID)
		}
	}
}
