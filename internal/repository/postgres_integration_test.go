//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.CommissionLog{},
		&models.DriveItem{},
		&models.DriveSession{},
		&models.Account{},
		&models.Product{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Product{},
		&models.DriveSession{},
		&models.DriveItem{},
		&models.CommissionLog{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresProductBandQuery(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	now := time.Now()
	seed := []models.Product{
		{Name: "带内商品", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("90.00")), IsActive: true, CreatedAt: now, UpdatedAt: now},
		{Name: "带外商品", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("120.00")), IsActive: true, CreatedAt: now, UpdatedAt: now},
		{Name: "下架商品", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("85.00")), IsActive: false, CreatedAt: now, UpdatedAt: now},
	}
	for i := range seed {
		if err := repo.Create(&seed[i]); err != nil {
			t.Fatalf("seed product failed: %v", err)
		}
	}

	products, err := repo.ListActiveInPriceRange(decimal.NewFromInt(80), decimal.NewFromInt(99), 10)
	if err != nil {
		t.Fatalf("band query failed: %v", err)
	}
	if len(products) != 1 || products[0].Name != "带内商品" {
		t.Fatalf("unexpected band result: %+v", products)
	}
}

func TestPostgresCaseInsensitiveSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	now := time.Now()
	product := models.Product{
		Name:      "Wireless Keyboard",
		Price:     models.NewMoneyFromDecimal(decimal.RequireFromString("99.00")),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(&product); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	// postgres 下走 ILIKE，大小写不敏感
	_, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "wireless"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 match, got %d", total)
	}
}

func TestPostgresDriveSessionLifecycle(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDriveRepository(db)

	now := time.Now()
	session := &models.DriveSession{
		SessionUUID:   uuid.NewString(),
		UserID:        1,
		Status:        constants.DriveSessionStatusActive,
		TasksRequired: 2,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	items := []models.DriveItem{
		{SessionID: session.ID, OrderInDrive: 1, TaskType: constants.DriveTaskTypeSingle, ProductID: 1, ProductNumber: "DRV-PG-1", UserStatus: constants.DriveItemStatusCurrent, CreatedAt: now, UpdatedAt: now},
		{SessionID: session.ID, OrderInDrive: 2, TaskType: constants.DriveTaskTypeSingle, ProductID: 2, ProductNumber: "DRV-PG-2", UserStatus: constants.DriveItemStatusPending, CreatedAt: now, UpdatedAt: now},
	}
	if err := repo.CreateItems(items); err != nil {
		t.Fatalf("create items failed: %v", err)
	}

	// 行级锁路径在 postgres 上可用
	if err := repo.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).GetActiveSessionByUserIDForUpdate(1)
		if err != nil {
			return err
		}
		if locked == nil || locked.ID != session.ID {
			t.Fatalf("expected locked session %d, got %+v", session.ID, locked)
		}
		return nil
	}); err != nil {
		t.Fatalf("locking query failed: %v", err)
	}

	current, err := repo.GetCurrentItem(session.ID)
	if err != nil {
		t.Fatalf("get current failed: %v", err)
	}
	if current == nil || current.ProductNumber != "DRV-PG-1" {
		t.Fatalf("unexpected current item: %+v", current)
	}
}
