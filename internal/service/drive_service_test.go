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

func setupDriveServiceTest(t *testing.T) (*DriveService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:drive_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Product{},
		&models.TierQuantityConfig{},
		&models.DriveSession{},
		&models.DriveItem{},
		&models.CommissionLog{},
		&models.Deposit{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	driveRepo := repository.NewDriveRepository(db)
	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	productRepo := repository.NewProductRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	logRepo := repository.NewCommissionLogRepository(db)
	tierRepo := repository.NewTierConfigRepository(db)

	ledger := NewLedgerService(accountRepo, logRepo)
	commission := NewCommissionService(ledger, userRepo, accountRepo, logRepo, "20", "200")
	driveConfig := NewDriveConfigService(productRepo, tierRepo, "0.80", "0.99", "50")
	notifications := NewNotificationService(repository.NewNotificationRepository(db), nil)

	return NewDriveService(driveRepo, userRepo, accountRepo, productRepo, depositRepo, ledger, commission, driveConfig, notifications, nil, nil), db
}

func createDriveTestUser(t *testing.T, db *gorm.DB, id uint, tier string, uplinerID *uint) {
	t.Helper()
	now := time.Now()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("drive_user_%d@example.com", id),
		PasswordHash: "hash",
		Tier:         tier,
		UplinerID:    uplinerID,
		ReferralCode: fmt.Sprintf("REF%05d", id),
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func createDriveTestAccount(t *testing.T, db *gorm.DB, userID uint, accountType, balance string) {
	t.Helper()
	now := time.Now()
	account := models.Account{
		UserID:    userID,
		Type:      accountType,
		Balance:   models.NewMoneyFromDecimal(decimal.RequireFromString(balance)),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if accountType == constants.AccountTypeTraining {
		account.Cap = models.NewMoneyFromDecimal(decimal.NewFromInt(200))
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
}

func createDriveTestProduct(t *testing.T, db *gorm.DB, name, price string) {
	t.Helper()
	now := time.Now()
	product := models.Product{
		Name:      name,
		Price:     models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
}

func mainBalance(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var account models.Account
	if err := db.Where("user_id = ? AND type = ?", userID, constants.AccountTypeMain).First(&account).Error; err != nil {
		t.Fatalf("load main account failed: %v", err)
	}
	return account.Balance.Decimal.Round(2)
}

func TestStartDriveRejectsBelowMinBalance(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "49.99")

	if _, err := svc.Start(1); !errors.Is(err, ErrDriveMinBalance) {
		t.Fatalf("expected ErrDriveMinBalance, got %v", err)
	}
}

func TestStartDriveRejectsWhenBandEmpty(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	// 价格带是 80~99，带外商品不可入选
	createDriveTestProduct(t, db, "带外低价商品", "10.00")
	createDriveTestProduct(t, db, "带外高价商品", "500.00")

	if _, err := svc.Start(1); !errors.Is(err, ErrNoProductsInRange) {
		t.Fatalf("expected ErrNoProductsInRange, got %v", err)
	}
}

func TestStartDriveCreatesSessionAndResumes(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "90.00")

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}
	if result.Resumed {
		t.Fatalf("first start should not resume")
	}
	if result.Session.Status != constants.DriveSessionStatusActive {
		t.Fatalf("expected active session, got %s", result.Session.Status)
	}
	if result.Session.TasksRequired != 40 {
		t.Fatalf("expected 40 tasks for bronze, got %d", result.Session.TasksRequired)
	}
	if result.Task == nil || result.Task.OrderInDrive != 1 {
		t.Fatalf("expected first task, got %+v", result.Task)
	}

	var items []models.DriveItem
	if err := db.Where("session_id = ?", result.Session.ID).Order("order_in_drive ASC").Find(&items).Error; err != nil {
		t.Fatalf("load items failed: %v", err)
	}
	if len(items) != 40 {
		t.Fatalf("expected 40 items, got %d", len(items))
	}
	if items[0].UserStatus != constants.DriveItemStatusCurrent {
		t.Fatalf("first item should be CURRENT, got %s", items[0].UserStatus)
	}
	for _, item := range items[1:] {
		if item.UserStatus != constants.DriveItemStatusPending {
			t.Fatalf("item %d should be PENDING, got %s", item.OrderInDrive, item.UserStatus)
		}
	}

	resumed, err := svc.Start(1)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if !resumed.Resumed {
		t.Fatalf("second start should resume existing session")
	}
	if resumed.Session.ID != result.Session.ID {
		t.Fatalf("resume returned different session: %d vs %d", resumed.Session.ID, result.Session.ID)
	}
}

func TestSaveOrderSettlesAndPaysCommission(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	uplinerID := uint(9)
	createDriveTestUser(t, db, uplinerID, constants.TierGold, nil)
	createDriveTestAccount(t, db, uplinerID, constants.AccountTypeMain, "0")
	createDriveTestUser(t, db, 1, constants.TierBronze, &uplinerID)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "90.00")

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}

	settle, err := svc.SaveOrder(SettleOrderInput{
		UserID:        1,
		ItemID:        result.Task.ItemID,
		ProductNumber: result.Task.ProductNumber,
	})
	if err != nil {
		t.Fatalf("save order failed: %v", err)
	}
	if settle.Frozen {
		t.Fatalf("settlement should not freeze with sufficient balance")
	}
	// bronze 单品佣金率 0.5%：90 * 0.005 = 0.45
	if !settle.Commission.Equal(decimal.RequireFromString("0.45")) {
		t.Fatalf("expected commission 0.45, got %s", settle.Commission)
	}
	// 余额 = 100 - 90 + 0.45
	if !settle.Balance.Equal(decimal.RequireFromString("10.45")) {
		t.Fatalf("expected balance 10.45, got %s", settle.Balance)
	}
	// 上级分成 20%：0.45 * 0.2 = 0.09
	if !mainBalance(t, db, uplinerID).Equal(decimal.RequireFromString("0.09")) {
		t.Fatalf("expected upline bonus 0.09, got %s", mainBalance(t, db, uplinerID))
	}
	// 实训账户按需创建并累计同额佣金
	var training models.Account
	if err := db.Where("user_id = ? AND type = ?", 1, constants.AccountTypeTraining).First(&training).Error; err != nil {
		t.Fatalf("training account should be created on demand: %v", err)
	}
	if !training.Commission.Decimal.Equal(decimal.RequireFromString("0.45")) {
		t.Fatalf("expected training commission 0.45, got %s", training.Commission.Decimal)
	}

	var session models.DriveSession
	if err := db.First(&session, result.Session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if session.TasksCompleted != 1 {
		t.Fatalf("expected 1 completed task, got %d", session.TasksCompleted)
	}
	if session.CurrentItemID == nil || *session.CurrentItemID == result.Task.ItemID {
		t.Fatalf("session should point to the next item")
	}

	// 结算是幂等推进：再次用旧任务号提交会因任务不匹配而失败
	if _, err := svc.SaveOrder(SettleOrderInput{
		UserID:        1,
		ItemID:        result.Task.ItemID,
		ProductNumber: result.Task.ProductNumber,
	}); !errors.Is(err, ErrOrderMismatch) {
		t.Fatalf("expected ErrOrderMismatch for stale item, got %v", err)
	}
}

func TestSaveOrderFreezesWithoutDebit(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "95.00")

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}

	// 结算前余额被抽走，低于任务价格
	if err := db.Model(&models.Account{}).
		Where("user_id = ? AND type = ?", 1, constants.AccountTypeMain).
		Update("balance", models.NewMoneyFromDecimal(decimal.NewFromInt(30))).Error; err != nil {
		t.Fatalf("drain balance failed: %v", err)
	}

	settle, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID})
	if err != nil {
		t.Fatalf("save order failed: %v", err)
	}
	if !settle.Frozen {
		t.Fatalf("expected frozen settlement result")
	}
	if !settle.FrozenAmountNeeded.Equal(decimal.RequireFromString("65")) {
		t.Fatalf("expected frozen_amount_needed 65, got %s", settle.FrozenAmountNeeded)
	}
	// 冻结不扣款
	if !mainBalance(t, db, 1).Equal(decimal.RequireFromString("30")) {
		t.Fatalf("freeze must not debit, balance = %s", mainBalance(t, db, 1))
	}

	var item models.DriveItem
	if err := db.First(&item, result.Task.ItemID).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if item.UserStatus != constants.DriveItemStatusCurrent {
		t.Fatalf("frozen item must stay CURRENT, got %s", item.UserStatus)
	}

	// 冻结状态下不可继续取单或结算
	if _, _, err := svc.GetOrder(1); !errors.Is(err, ErrSessionFrozen) {
		t.Fatalf("expected ErrSessionFrozen from getorder, got %v", err)
	}
	if _, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID}); !errors.Is(err, ErrSessionFrozen) {
		t.Fatalf("expected ErrSessionFrozen from saveorder, got %v", err)
	}
}

func TestCheckUnfreezeAfterDeposit(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "95.00")

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}
	if err := db.Model(&models.Account{}).
		Where("user_id = ? AND type = ?", 1, constants.AccountTypeMain).
		Update("balance", models.NewMoneyFromDecimal(decimal.NewFromInt(30))).Error; err != nil {
		t.Fatalf("drain balance failed: %v", err)
	}
	if _, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID}); err != nil {
		t.Fatalf("freeze settlement failed: %v", err)
	}

	// 余额仍不足，解冻检查应返回 false
	unfrozen, err := svc.CheckUnfreeze(1)
	if err != nil {
		t.Fatalf("check unfreeze failed: %v", err)
	}
	if unfrozen {
		t.Fatalf("should stay frozen while balance below item price")
	}

	// 管理员入金补足后解冻
	if _, err := svc.AdminDeposit(7, 1, models.NewMoneyFromDecimal(decimal.NewFromInt(70)), "补足余额"); err != nil {
		t.Fatalf("admin deposit failed: %v", err)
	}

	var session models.DriveSession
	if err := db.First(&session, result.Session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if session.Status != constants.DriveSessionStatusActive {
		t.Fatalf("expected active session after deposit, got %s", session.Status)
	}
	if session.FrozenAmountNeeded != nil {
		t.Fatalf("frozen_amount_needed should be cleared")
	}

	// 解冻后可正常结算
	if _, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID}); err != nil {
		t.Fatalf("settlement after unfreeze failed: %v", err)
	}
}

func TestAdminResetCompletesSession(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "90.00")

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}

	if err := svc.AdminReset(7, 1); err != nil {
		t.Fatalf("admin reset failed: %v", err)
	}

	var session models.DriveSession
	if err := db.First(&session, result.Session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if session.Status != constants.DriveSessionStatusCompleted {
		t.Fatalf("expected completed session, got %s", session.Status)
	}
	if session.CurrentItemID != nil {
		t.Fatalf("current_item_id should be cleared")
	}

	// 重置写入审计流水
	var log models.CommissionLog
	if err := db.Where("user_id = ? AND commission_type = ?", 1, constants.CommissionTypeAdminAction).First(&log).Error; err != nil {
		t.Fatalf("expected reset audit log: %v", err)
	}

	// 重置后可立即开始新一轮
	next, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start after reset failed: %v", err)
	}
	if next.Resumed {
		t.Fatalf("start after reset should create a new session")
	}
	if next.Session.ID == result.Session.ID {
		t.Fatalf("new session expected after reset")
	}
}

func TestDriveStatusTransitions(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "95.00")

	status, err := svc.Status(1)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Status != constants.DriveStatusNoSession {
		t.Fatalf("expected no_session, got %s", status.Status)
	}

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}
	status, err = svc.Status(1)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Status != constants.DriveStatusActive {
		t.Fatalf("expected active, got %s", status.Status)
	}
	if status.CurrentTask == nil {
		t.Fatalf("active status should carry the current task")
	}

	if err := db.Model(&models.Account{}).
		Where("user_id = ? AND type = ?", 1, constants.AccountTypeMain).
		Update("balance", models.NewMoneyFromDecimal(decimal.NewFromInt(30))).Error; err != nil {
		t.Fatalf("drain balance failed: %v", err)
	}
	if _, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID}); err != nil {
		t.Fatalf("freeze settlement failed: %v", err)
	}
	status, err = svc.Status(1)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Status != constants.DriveStatusFrozen {
		t.Fatalf("expected frozen, got %s", status.Status)
	}
	if status.FrozenAmountNeeded == nil || !status.FrozenAmountNeeded.Decimal.Equal(decimal.RequireFromString("65")) {
		t.Fatalf("expected frozen_amount_needed 65, got %+v", status.FrozenAmountNeeded)
	}

	if err := svc.AdminReset(7, 1); err != nil {
		t.Fatalf("admin reset failed: %v", err)
	}
	status, err = svc.Status(1)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Status != constants.DriveStatusComplete {
		t.Fatalf("expected complete after reset, got %s", status.Status)
	}
}

func TestSaveOrderCompletesSessionOnLastTask(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "90.00")

	// 单任务等级配置，使一笔结算即完成整轮
	tier := models.TierQuantityConfig{
		TierName:       constants.TierBronze,
		QuantityLimit:  1,
		NumSingleTasks: 1,
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := db.Create(&tier).Error; err != nil {
		t.Fatalf("create tier config failed: %v", err)
	}

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}
	if result.Session.TasksRequired != 1 {
		t.Fatalf("expected single-task session, got %d", result.Session.TasksRequired)
	}

	settle, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID})
	if err != nil {
		t.Fatalf("save order failed: %v", err)
	}
	if !settle.Completed {
		t.Fatalf("last settlement should complete the session")
	}
	if settle.Session.Status != constants.DriveSessionStatusCompleted {
		t.Fatalf("expected completed session, got %s", settle.Session.Status)
	}

	// 完成后 getorder 报会话不存在
	if _, _, err := svc.GetOrder(1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after completion, got %v", err)
	}
}

func TestSaveOrderRejectsEmptyIdentifiers(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "90.00")

	if _, err := svc.Start(1); err != nil {
		t.Fatalf("start drive failed: %v", err)
	}

	// 空标识不允许默认结算当前任务
	if _, err := svc.SaveOrder(SettleOrderInput{UserID: 1}); !errors.Is(err, ErrOrderMismatch) {
		t.Fatalf("expected ErrOrderMismatch for empty identifiers, got %v", err)
	}
	if _, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ProductNumber: "   "}); !errors.Is(err, ErrOrderMismatch) {
		t.Fatalf("expected ErrOrderMismatch for blank product number, got %v", err)
	}

	// 余额与任务状态不受影响
	if !mainBalance(t, db, 1).Equal(decimal.RequireFromString("100")) {
		t.Fatalf("rejected settle must not debit, balance = %s", mainBalance(t, db, 1))
	}
	var current models.DriveItem
	if err := db.Where("user_status = ?", constants.DriveItemStatusCurrent).First(&current).Error; err != nil {
		t.Fatalf("current item missing after rejected settle: %v", err)
	}
}

func TestFreezeWritesNotificationWithoutQueue(t *testing.T) {
	svc, db := setupDriveServiceTest(t)
	createDriveTestUser(t, db, 1, constants.TierBronze, nil)
	createDriveTestAccount(t, db, 1, constants.AccountTypeMain, "100")
	createDriveTestProduct(t, db, "带内商品", "95.00")

	result, err := svc.Start(1)
	if err != nil {
		t.Fatalf("start drive failed: %v", err)
	}
	if err := db.Model(&models.Account{}).
		Where("user_id = ? AND type = ?", 1, constants.AccountTypeMain).
		Update("balance", models.NewMoneyFromDecimal(decimal.NewFromInt(30))).Error; err != nil {
		t.Fatalf("drain balance failed: %v", err)
	}

	settle, err := svc.SaveOrder(SettleOrderInput{UserID: 1, ItemID: result.Task.ItemID})
	if err != nil {
		t.Fatalf("save order failed: %v", err)
	}
	if !settle.Frozen {
		t.Fatalf("expected frozen settlement result")
	}

	// 队列未启用时冻结通知同步落库
	var frozenCount int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", 1, constants.NotificationTypeDriveFrozen).
		Count(&frozenCount).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if frozenCount != 1 {
		t.Fatalf("expected 1 frozen notification, got %d", frozenCount)
	}

	// 入金解冻后同样同步投递解冻通知
	if _, err := svc.AdminDeposit(7, 1, models.NewMoneyFromDecimal(decimal.NewFromInt(70)), "补足余额"); err != nil {
		t.Fatalf("admin deposit failed: %v", err)
	}
	var unfrozenCount int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", 1, constants.NotificationTypeDriveUnfrozen).
		Count(&unfrozenCount).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if unfrozenCount != 1 {
		t.Fatalf("expected 1 unfrozen notification, got %d", unfrozenCount)
	}
}
