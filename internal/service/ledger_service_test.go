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

func setupLedgerServiceTest(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}, &models.CommissionLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	accountRepo := repository.NewAccountRepository(db)
	logRepo := repository.NewCommissionLogRepository(db)
	return NewLedgerService(accountRepo, logRepo), db
}

func ledgerEntry(userID uint, amount, reference string) LedgerEntryInput {
	return LedgerEntryInput{
		UserID:         userID,
		AccountType:    constants.AccountTypeMain,
		Amount:         models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		CommissionType: constants.CommissionTypeAdminDeposit,
		Reference:      reference,
	}
}

func TestCreditCreatesAccountOnDemand(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	account, log, err := svc.Credit(ledgerEntry(1, "100", "test:credit:1"))
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", account.Balance.Decimal)
	}
	if log.Direction != constants.LedgerDirectionCredit {
		t.Fatalf("expected credit direction, got %s", log.Direction)
	}

	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		t.Fatalf("count accounts failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 account, got %d", count)
	}
}

func TestLedgerReferenceReplayIsIdempotent(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	if _, _, err := svc.Credit(ledgerEntry(1, "100", "test:replay:1")); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	account, log, err := svc.Credit(ledgerEntry(1, "100", "test:replay:1"))
	if err != nil {
		t.Fatalf("replayed credit failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("replay must not double book, balance = %s", account.Balance.Decimal)
	}
	if log == nil || log.ReferenceID == nil || *log.ReferenceID != "test:replay:1" {
		t.Fatalf("replay should return the original log, got %+v", log)
	}

	var count int64
	if err := db.Model(&models.CommissionLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 log after replay, got %d", count)
	}
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	svc, _ := setupLedgerServiceTest(t)

	if _, _, err := svc.Credit(ledgerEntry(1, "10", "test:credit:small")); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, _, err := svc.Debit(ledgerEntry(1, "10.01", "test:debit:over")); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// 余额未被动过
	account, err := svc.GetAccount(1, constants.AccountTypeMain)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("failed debit must not change balance, got %s", account.Balance.Decimal)
	}
}

func TestLedgerRejectsInvalidInput(t *testing.T) {
	svc, _ := setupLedgerServiceTest(t)

	if _, _, err := svc.Credit(ledgerEntry(1, "0", "test:zero")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if _, _, err := svc.Credit(ledgerEntry(1, "-5", "test:negative")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
	if _, _, err := svc.Credit(ledgerEntry(1, "5", "   ")); !errors.Is(err, ErrLedgerReferenceEmpty) {
		t.Fatalf("expected ErrLedgerReferenceEmpty, got %v", err)
	}
	if _, _, err := svc.Credit(ledgerEntry(0, "5", "test:nouser")); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerRejectsInactiveAccount(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	if _, _, err := svc.Credit(ledgerEntry(1, "100", "test:credit:init")); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := db.Model(&models.Account{}).
		Where("user_id = ? AND type = ?", 1, constants.AccountTypeMain).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate account failed: %v", err)
	}

	if _, _, err := svc.Credit(ledgerEntry(1, "10", "test:credit:frozen")); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestCreditCountAsEarningAccruesCommission(t *testing.T) {
	svc, _ := setupLedgerServiceTest(t)

	input := ledgerEntry(1, "2.50", "test:earning:1")
	input.CommissionType = constants.CommissionTypeDirectDrive
	input.CountAsEarning = true
	account, _, err := svc.Credit(input)
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if !account.Commission.Decimal.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("expected commission 2.50, got %s", account.Commission.Decimal)
	}
	if !account.Balance.Decimal.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("expected balance 2.50, got %s", account.Balance.Decimal)
	}
}
