package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupDriveRepositoryTest(t *testing.T) (*GormDriveRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:drive_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.DriveSession{}, &models.DriveItem{}); err != nil {
		t.Fatalf("migrate drive tables failed: %v", err)
	}
	return NewDriveRepository(db), db
}

func createRepoSession(t *testing.T, repo *GormDriveRepository, userID uint, status string) *models.DriveSession {
	t.Helper()
	now := time.Now()
	session := &models.DriveSession{
		SessionUUID:   uuid.NewString(),
		UserID:        userID,
		Status:        status,
		TasksRequired: 3,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	return session
}

func createRepoItems(t *testing.T, repo *GormDriveRepository, sessionID uint, statuses ...string) []models.DriveItem {
	t.Helper()
	now := time.Now()
	items := make([]models.DriveItem, 0, len(statuses))
	for i, status := range statuses {
		items = append(items, models.DriveItem{
			SessionID:     sessionID,
			OrderInDrive:  i + 1,
			TaskType:      constants.DriveTaskTypeSingle,
			ProductID:     uint(i + 1),
			ProductNumber: fmt.Sprintf("DRV-%d-%d", sessionID, i+1),
			UserStatus:    status,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if err := repo.CreateItems(items); err != nil {
		t.Fatalf("create items failed: %v", err)
	}
	return items
}

func TestGetActiveSessionSkipsFinishedOnes(t *testing.T) {
	repo, _ := setupDriveRepositoryTest(t)

	completed := createRepoSession(t, repo, 1, constants.DriveSessionStatusCompleted)
	frozen := createRepoSession(t, repo, 1, constants.DriveSessionStatusFrozen)

	session, err := repo.GetActiveSessionByUserID(1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if session == nil || session.ID != frozen.ID {
		t.Fatalf("expected frozen session %d, got %+v", frozen.ID, session)
	}
	if session.ID == completed.ID {
		t.Fatalf("completed session must not be returned")
	}

	none, err := repo.GetActiveSessionByUserID(2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for user without session, got %+v", none)
	}
}

func TestCurrentAndNextPendingItem(t *testing.T) {
	repo, _ := setupDriveRepositoryTest(t)
	session := createRepoSession(t, repo, 1, constants.DriveSessionStatusActive)
	createRepoItems(t, repo, session.ID,
		constants.DriveItemStatusCompleted,
		constants.DriveItemStatusCurrent,
		constants.DriveItemStatusPending,
	)

	current, err := repo.GetCurrentItem(session.ID)
	if err != nil {
		t.Fatalf("get current failed: %v", err)
	}
	if current == nil || current.OrderInDrive != 2 {
		t.Fatalf("expected current at position 2, got %+v", current)
	}

	next, err := repo.GetNextPendingItem(session.ID)
	if err != nil {
		t.Fatalf("get next pending failed: %v", err)
	}
	if next == nil || next.OrderInDrive != 3 {
		t.Fatalf("expected next pending at position 3, got %+v", next)
	}

	pending, err := repo.CountItemsByStatus(session.ID, constants.DriveItemStatusPending)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if pending != 1 {
		t.Fatalf("expected 1 pending item, got %d", pending)
	}
}

func TestListSessionsFilter(t *testing.T) {
	repo, _ := setupDriveRepositoryTest(t)
	createRepoSession(t, repo, 1, constants.DriveSessionStatusCompleted)
	createRepoSession(t, repo, 1, constants.DriveSessionStatusActive)
	createRepoSession(t, repo, 2, constants.DriveSessionStatusActive)

	sessions, total, err := repo.ListSessions(DriveSessionListFilter{Page: 1, PageSize: 10, UserID: 1})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(sessions) != 2 {
		t.Fatalf("expected 2 sessions for user 1, got total=%d len=%d", total, len(sessions))
	}
	// 最近的会话排在前面
	if sessions[0].Status != constants.DriveSessionStatusActive {
		t.Fatalf("expected newest first, got %s", sessions[0].Status)
	}

	_, total, err = repo.ListSessions(DriveSessionListFilter{Page: 1, PageSize: 10, Status: constants.DriveSessionStatusActive})
	if err != nil {
		t.Fatalf("status filter failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 active sessions, got %d", total)
	}
}

func TestGetItemByProductNumber(t *testing.T) {
	repo, _ := setupDriveRepositoryTest(t)
	session := createRepoSession(t, repo, 1, constants.DriveSessionStatusActive)
	items := createRepoItems(t, repo, session.ID, constants.DriveItemStatusCurrent)

	item, err := repo.GetItemByProductNumber(items[0].ProductNumber)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if item == nil || item.SessionID != session.ID {
		t.Fatalf("unexpected item: %+v", item)
	}

	missing, err := repo.GetItemByProductNumber("DRV-NOPE")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown number, got %+v", missing)
	}
}
