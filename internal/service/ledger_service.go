package service

import (
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService 资金账户与佣金流水服务
type LedgerService struct {
	accountRepo repository.AccountRepository
	logRepo     repository.CommissionLogRepository
}

// LedgerEntryInput 记账输入
type LedgerEntryInput struct {
	UserID         uint
	AccountType    string
	Amount         models.Money
	CommissionType string
	SourceUserID   *uint
	SourceActionID *uint
	Reference      string
	Description    string
	CountAsEarning bool
}

// NewLedgerService 创建记账服务
func NewLedgerService(accountRepo repository.AccountRepository, logRepo repository.CommissionLogRepository) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		logRepo:     logRepo,
	}
}

// GetAccount 获取账户（不存在时自动创建）
func (s *LedgerService) GetAccount(userID uint, accountType string) (*models.Account, error) {
	if userID == 0 {
		return nil, ErrAccountNotFound
	}
	account, err := s.accountRepo.GetByUserAndType(userID, accountType)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = newZeroAccount(userID, accountType, now)
	if err := s.accountRepo.Create(account); err != nil {
		created, queryErr := s.accountRepo.GetByUserAndType(userID, accountType)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrAccountCreateFailed
	}
	return account, nil
}

// ListAccounts 获取用户全部账户
func (s *LedgerService) ListAccounts(userID uint) ([]models.Account, error) {
	return s.accountRepo.ListByUserID(userID)
}

// ListLogs 查询佣金流水
func (s *LedgerService) ListLogs(filter repository.CommissionLogListFilter) ([]models.CommissionLog, int64, error) {
	return s.logRepo.List(filter)
}

// Credit 入账
func (s *LedgerService) Credit(input LedgerEntryInput) (*models.Account, *models.CommissionLog, error) {
	var accountResult *models.Account
	var logResult *models.CommissionLog
	if err := s.accountRepo.Transaction(func(tx *gorm.DB) error {
		account, log, err := s.CreditInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		logResult = log
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, logResult, nil
}

// Debit 出账
func (s *LedgerService) Debit(input LedgerEntryInput) (*models.Account, *models.CommissionLog, error) {
	var accountResult *models.Account
	var logResult *models.CommissionLog
	if err := s.accountRepo.Transaction(func(tx *gorm.DB) error {
		account, log, err := s.DebitInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		logResult = log
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, logResult, nil
}

// CreditInTx 在事务内入账并写入唯一参考号流水
func (s *LedgerService) CreditInTx(tx *gorm.DB, input LedgerEntryInput) (*models.Account, *models.CommissionLog, error) {
	return s.applyEntryInTx(tx, input, constants.LedgerDirectionCredit)
}

// DebitInTx 在事务内出账并写入唯一参考号流水
func (s *LedgerService) DebitInTx(tx *gorm.DB, input LedgerEntryInput) (*models.Account, *models.CommissionLog, error) {
	return s.applyEntryInTx(tx, input, constants.LedgerDirectionDebit)
}

func (s *LedgerService) applyEntryInTx(tx *gorm.DB, input LedgerEntryInput, direction string) (*models.Account, *models.CommissionLog, error) {
	if tx == nil {
		return nil, nil, ErrLedgerWriteFailed
	}
	if input.UserID == 0 {
		return nil, nil, ErrAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrLedgerReferenceEmpty
	}
	accountType := normalizeAccountType(input.AccountType)

	accountRepo := s.accountRepo.WithTx(tx)
	logRepo := s.logRepo.WithTx(tx)

	exists, err := logRepo.GetByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := accountRepo.GetByUserAndType(input.UserID, accountType)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	now := time.Now()
	account, err := s.ensureAccountForUpdate(accountRepo, input.UserID, accountType, now)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, ErrAccountInactive
	}

	before := account.Balance.Decimal.Round(2)
	var after decimal.Decimal
	if direction == constants.LedgerDirectionDebit {
		after = before.Sub(amount).Round(2)
		if after.LessThan(decimal.Zero) {
			return nil, nil, ErrInsufficientBalance
		}
	} else {
		after = before.Add(amount).Round(2)
	}

	account.Balance = models.NewMoneyFromDecimal(after)
	if input.CountAsEarning && direction == constants.LedgerDirectionCredit {
		account.Commission = models.NewMoneyFromDecimal(account.Commission.Decimal.Add(amount).Round(2))
	}
	account.UpdatedAt = now
	if err := accountRepo.Update(account); err != nil {
		return nil, nil, ErrAccountUpdateFailed
	}

	log := &models.CommissionLog{
		UserID:           input.UserID,
		SourceUserID:     input.SourceUserID,
		SourceActionID:   input.SourceActionID,
		AccountType:      accountType,
		Direction:        direction,
		CommissionAmount: models.NewMoneyFromDecimal(amount),
		CommissionType:   strings.TrimSpace(input.CommissionType),
		Description:      cleanLedgerDescription(input.Description, direction),
		ReferenceID:      &reference,
		CreatedAt:        now,
	}
	if err := logRepo.Create(log); err != nil {
		return nil, nil, ErrLedgerWriteFailed
	}
	return account, log, nil
}

func (s *LedgerService) ensureAccountForUpdate(repo *repository.GormAccountRepository, userID uint, accountType string, now time.Time) (*models.Account, error) {
	account, err := repo.GetByUserAndTypeForUpdate(userID, accountType)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = newZeroAccount(userID, accountType, now)
	if err := repo.Create(account); err != nil {
		created, queryErr := repo.GetByUserAndTypeForUpdate(userID, accountType)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrAccountCreateFailed
	}
	return account, nil
}

func newZeroAccount(userID uint, accountType string, now time.Time) *models.Account {
	return &models.Account{
		UserID:     userID,
		Type:       normalizeAccountType(accountType),
		Balance:    models.ZeroMoney(),
		Frozen:     models.ZeroMoney(),
		Commission: models.ZeroMoney(),
		Cap:        models.ZeroMoney(),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func normalizeAccountType(accountType string) string {
	normalized := strings.ToLower(strings.TrimSpace(accountType))
	if normalized == "" {
		return constants.AccountTypeMain
	}
	return normalized
}

func cleanLedgerDescription(raw string, direction string) string {
	description := strings.TrimSpace(raw)
	if description != "" {
		return description
	}
	if direction == constants.LedgerDirectionDebit {
		return "账户出账"
	}
	return "账户入账"
}
