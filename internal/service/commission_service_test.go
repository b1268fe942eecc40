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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCommissionServiceTest(t *testing.T) (*CommissionService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:commission_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.CommissionLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	logRepo := repository.NewCommissionLogRepository(db)
	ledger := NewLedgerService(accountRepo, logRepo)

	return NewCommissionService(ledger, userRepo, accountRepo, logRepo, "20", "200"), db
}

func createCommissionTestUser(t *testing.T, db *gorm.DB, id uint, uplinerID *uint) {
	t.Helper()
	now := time.Now()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("commission_user_%d@example.com", id),
		PasswordHash: "hash",
		Tier:         constants.TierBronze,
		UplinerID:    uplinerID,
		ReferralCode: fmt.Sprintf("CMS%05d", id),
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func loadAccount(t *testing.T, db *gorm.DB, userID uint, accountType string) *models.Account {
	t.Helper()
	var account models.Account
	err := db.Where("user_id = ? AND type = ?", userID, accountType).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	return &account
}

func TestDirectDriveCommissionIdempotent(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	createCommissionTestUser(t, db, 1, nil)

	price := decimal.NewFromInt(90)
	rate := decimal.RequireFromString("0.005")
	for i := 0; i < 2; i++ {
		if err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.DirectDriveCommissionInTx(tx, 1, 11, price, rate)
			return err
		}); err != nil {
			t.Fatalf("direct commission failed: %v", err)
		}
	}

	account := loadAccount(t, db, 1, constants.AccountTypeMain)
	if account == nil {
		t.Fatalf("main account should be created")
	}
	// 同一引用号重放不重复入账
	if !account.Balance.Decimal.Equal(decimal.RequireFromString("0.45")) {
		t.Fatalf("expected balance 0.45 after replay, got %s", account.Balance.Decimal)
	}

	var count int64
	if err := db.Model(&models.CommissionLog{}).
		Where("user_id = ? AND commission_type = ?", 1, constants.CommissionTypeDirectDrive).
		Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 commission log, got %d", count)
	}
}

func TestUplineCommissionSkipsWithoutUpliner(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	createCommissionTestUser(t, db, 1, nil)

	if err := db.Transaction(func(tx *gorm.DB) error {
		bonus, err := svc.UplineCommissionInTx(tx, 1, 11, decimal.RequireFromString("0.45"))
		if err != nil {
			return err
		}
		if !bonus.IsZero() {
			t.Fatalf("expected zero bonus without upliner, got %s", bonus)
		}
		return nil
	}); err != nil {
		t.Fatalf("upline commission failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.CommissionLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no logs, got %d", count)
	}
}

func TestUplineCommissionPaysFixedShare(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	uplinerID := uint(9)
	createCommissionTestUser(t, db, uplinerID, nil)
	createCommissionTestUser(t, db, 1, &uplinerID)

	if err := db.Transaction(func(tx *gorm.DB) error {
		bonus, err := svc.UplineCommissionInTx(tx, 1, 11, decimal.NewFromInt(5))
		if err != nil {
			return err
		}
		// 20% 固定分成
		if !bonus.Equal(decimal.NewFromInt(1)) {
			t.Fatalf("expected bonus 1.00, got %s", bonus)
		}
		return nil
	}); err != nil {
		t.Fatalf("upline commission failed: %v", err)
	}

	account := loadAccount(t, db, uplinerID, constants.AccountTypeMain)
	if account == nil || !account.Balance.Decimal.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected upliner balance 1.00, got %+v", account)
	}
}

func TestTrainingCommissionAccruesOutsideBalance(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	createCommissionTestUser(t, db, 1, nil)

	price := decimal.NewFromInt(90)
	rate := decimal.RequireFromString("0.005")
	for i := 0; i < 2; i++ {
		if err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.TrainingCommissionInTx(tx, 1, 11, price, rate)
			return err
		}); err != nil {
			t.Fatalf("training commission failed: %v", err)
		}
	}

	account := loadAccount(t, db, 1, constants.AccountTypeTraining)
	if account == nil {
		t.Fatalf("training account should be created on demand")
	}
	if !account.Commission.Decimal.Equal(decimal.RequireFromString("0.45")) {
		t.Fatalf("expected training commission 0.45, got %s", account.Commission.Decimal)
	}
	// 训练佣金不进入可用余额
	if !account.Balance.Decimal.IsZero() {
		t.Fatalf("training balance should stay zero, got %s", account.Balance.Decimal)
	}
	if !account.Cap.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected default cap 200, got %s", account.Cap.Decimal)
	}
}

func TestTrainingCapTransferDeactivatesAccount(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	createCommissionTestUser(t, db, 1, nil)
	now := time.Now()
	account := models.Account{
		UserID:     1,
		Type:       constants.AccountTypeTraining,
		Commission: models.NewMoneyFromDecimal(decimal.NewFromInt(230)),
		Cap:        models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create training account failed: %v", err)
	}

	var transferred decimal.Decimal
	if err := db.Transaction(func(tx *gorm.DB) error {
		amount, err := svc.CheckAndTransferTrainingCapInTx(tx, 1)
		transferred = amount
		return err
	}); err != nil {
		t.Fatalf("cap transfer failed: %v", err)
	}
	// 达到上限只转固定 50，余量冻结
	if !transferred.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected transfer 50, got %s", transferred)
	}

	training := loadAccount(t, db, 1, constants.AccountTypeTraining)
	if training.IsActive {
		t.Fatalf("training account should be deactivated")
	}
	if !training.Commission.Decimal.IsZero() || !training.Balance.Decimal.IsZero() {
		t.Fatalf("training commission and balance should be zeroed")
	}
	if !training.Frozen.Decimal.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected frozen remainder 180, got %s", training.Frozen.Decimal)
	}

	main := loadAccount(t, db, 1, constants.AccountTypeMain)
	if main == nil || !main.Balance.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected main balance 50, got %+v", main)
	}

	// 已停用账户再次检查不再转移
	if err := db.Transaction(func(tx *gorm.DB) error {
		amount, err := svc.CheckAndTransferTrainingCapInTx(tx, 1)
		if err != nil {
			return err
		}
		if !amount.IsZero() {
			t.Fatalf("expected no further transfer, got %s", amount)
		}
		return nil
	}); err != nil {
		t.Fatalf("second cap check failed: %v", err)
	}
}

func TestTrainingCapTransferBelowUnit(t *testing.T) {
	svc, db := setupCommissionServiceTest(t)
	createCommissionTestUser(t, db, 1, nil)
	now := time.Now()
	account := models.Account{
		UserID:     1,
		Type:       constants.AccountTypeTraining,
		Commission: models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Cap:        models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create training account failed: %v", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		amount, err := svc.CheckAndTransferTrainingCapInTx(tx, 1)
		if err != nil {
			return err
		}
		// 上限低于固定额度时按上限转移
		if !amount.Equal(decimal.NewFromInt(30)) {
			t.Fatalf("expected transfer 30, got %s", amount)
		}
		return nil
	}); err != nil {
		t.Fatalf("cap transfer failed: %v", err)
	}

	main := loadAccount(t, db, 1, constants.AccountTypeMain)
	if main == nil || !main.Balance.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected main balance 30, got %+v", main)
	}
}
