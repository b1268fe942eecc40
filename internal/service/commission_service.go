package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRates 等级佣金率（单品 / 组合）
type CommissionRates struct {
	Single decimal.Decimal
	Combo  decimal.Decimal
}

// tierCommissionRates 等级佣金率静态表，未知等级回落到 bronze
var tierCommissionRates = map[string]CommissionRates{
	constants.TierBronze: {
		Single: decimal.RequireFromString("0.005"),
		Combo:  decimal.RequireFromString("0.015"),
	},
	constants.TierSilver: {
		Single: decimal.RequireFromString("0.01"),
		Combo:  decimal.RequireFromString("0.03"),
	},
	constants.TierGold: {
		Single: decimal.RequireFromString("0.015"),
		Combo:  decimal.RequireFromString("0.045"),
	},
	constants.TierPlatinum: {
		Single: decimal.RequireFromString("0.02"),
		Combo:  decimal.RequireFromString("0.06"),
	},
}

// trainingCapTransferUnit 达到上限后单次转入主账户的固定额度
var trainingCapTransferUnit = decimal.NewFromInt(50)

// RatesForTier 查询等级佣金率
func RatesForTier(tier string) CommissionRates {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	if rates, ok := tierCommissionRates[normalized]; ok {
		return rates
	}
	return tierCommissionRates[constants.TierBronze]
}

// CommissionService 佣金引擎
type CommissionService struct {
	ledger      *LedgerService
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	logRepo     repository.CommissionLogRepository
	uplineRate  decimal.Decimal
	capDefault  decimal.Decimal
}

// NewCommissionService 创建佣金引擎
func NewCommissionService(
	ledger *LedgerService,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	logRepo repository.CommissionLogRepository,
	uplineBonusPercent string,
	trainingCapDefault string,
) *CommissionService {
	uplineRate, err := decimal.NewFromString(strings.TrimSpace(uplineBonusPercent))
	if err != nil || uplineRate.LessThanOrEqual(decimal.Zero) {
		uplineRate = decimal.NewFromInt(20)
	}
	capDefault, err := decimal.NewFromString(strings.TrimSpace(trainingCapDefault))
	if err != nil || capDefault.LessThanOrEqual(decimal.Zero) {
		capDefault = decimal.NewFromInt(200)
	}
	return &CommissionService{
		ledger:      ledger,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		logRepo:     logRepo,
		uplineRate:  uplineRate.Div(decimal.NewFromInt(100)),
		capDefault:  capDefault,
	}
}

// DirectDriveCommissionInTx 在事务内发放直接刷单佣金到主账户
func (s *CommissionService) DirectDriveCommissionInTx(tx *gorm.DB, userID uint, itemID uint, price, rate decimal.Decimal) (decimal.Decimal, error) {
	commission := price.Mul(rate).Round(2)
	if commission.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	reference := fmt.Sprintf("drive:item:%d:direct", itemID)
	_, _, err := s.ledger.CreditInTx(tx, LedgerEntryInput{
		UserID:         userID,
		AccountType:    constants.AccountTypeMain,
		Amount:         models.NewMoneyFromDecimal(commission),
		CommissionType: constants.CommissionTypeDirectDrive,
		SourceActionID: &itemID,
		Reference:      reference,
		Description:    "刷单任务直接佣金",
		CountAsEarning: true,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return commission, nil
}

// UplineCommissionInTx 在事务内向上级发放固定比例分成
func (s *CommissionService) UplineCommissionInTx(tx *gorm.DB, userID uint, itemID uint, directCommission decimal.Decimal) (decimal.Decimal, error) {
	if directCommission.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	user, err := s.userRepo.WithTx(tx).GetByID(userID)
	if err != nil {
		return decimal.Zero, err
	}
	if user == nil || user.UplinerID == nil || *user.UplinerID == 0 {
		return decimal.Zero, nil
	}

	bonus := directCommission.Mul(s.uplineRate).Round(2)
	if bonus.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	reference := fmt.Sprintf("drive:item:%d:upline:%d", itemID, *user.UplinerID)
	_, _, err = s.ledger.CreditInTx(tx, LedgerEntryInput{
		UserID:         *user.UplinerID,
		AccountType:    constants.AccountTypeMain,
		Amount:         models.NewMoneyFromDecimal(bonus),
		CommissionType: constants.CommissionTypeUplineBonus,
		SourceUserID:   &userID,
		SourceActionID: &itemID,
		Reference:      reference,
		Description:    "下级刷单分成",
		CountAsEarning: true,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return bonus, nil
}

// TrainingCommissionInTx 在事务内累积训练账户佣金（不进入可用余额）
func (s *CommissionService) TrainingCommissionInTx(tx *gorm.DB, userID uint, itemID uint, price, rate decimal.Decimal) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, ErrLedgerWriteFailed
	}
	commission := price.Mul(rate).Round(2)
	if commission.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	now := time.Now()
	accountRepo := s.accountRepo.WithTx(tx)
	logRepo := s.logRepo.WithTx(tx)

	reference := fmt.Sprintf("drive:item:%d:training", itemID)
	exists, err := logRepo.GetByReference(reference)
	if err != nil {
		return decimal.Zero, err
	}
	if exists != nil {
		return exists.CommissionAmount.Decimal, nil
	}

	account, err := s.ensureTrainingAccountForUpdate(accountRepo, userID, now)
	if err != nil {
		return decimal.Zero, err
	}
	if !account.IsActive {
		return decimal.Zero, nil
	}

	account.Commission = models.NewMoneyFromDecimal(account.Commission.Decimal.Add(commission).Round(2))
	account.UpdatedAt = now
	if err := accountRepo.Update(account); err != nil {
		return decimal.Zero, ErrAccountUpdateFailed
	}

	log := &models.CommissionLog{
		UserID:           userID,
		SourceActionID:   &itemID,
		AccountType:      constants.AccountTypeTraining,
		Direction:        constants.LedgerDirectionCredit,
		CommissionAmount: models.NewMoneyFromDecimal(commission),
		CommissionType:   constants.CommissionTypeTrainingBonus,
		Description:      "训练账户佣金累积",
		ReferenceID:      &reference,
		CreatedAt:        now,
	}
	if err := logRepo.Create(log); err != nil {
		return decimal.Zero, ErrLedgerWriteFailed
	}
	return commission, nil
}

// CheckAndTransferTrainingCap 训练账户达到上限后转入主账户并停用
func (s *CommissionService) CheckAndTransferTrainingCap(userID uint) (decimal.Decimal, error) {
	var transferred decimal.Decimal
	if err := s.accountRepo.Transaction(func(tx *gorm.DB) error {
		amount, err := s.CheckAndTransferTrainingCapInTx(tx, userID)
		if err != nil {
			return err
		}
		transferred = amount
		return nil
	}); err != nil {
		return decimal.Zero, err
	}
	return transferred, nil
}

// CheckAndTransferTrainingCapInTx 事务内执行训练账户上限转移
func (s *CommissionService) CheckAndTransferTrainingCapInTx(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, ErrLedgerWriteFailed
	}
	if userID == 0 {
		return decimal.Zero, ErrAccountNotFound
	}

	now := time.Now()
	accountRepo := s.accountRepo.WithTx(tx)
	logRepo := s.logRepo.WithTx(tx)

	account, err := accountRepo.GetByUserAndTypeForUpdate(userID, constants.AccountTypeTraining)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil || !account.IsActive {
		return decimal.Zero, nil
	}

	capAmount := account.Cap.Decimal.Round(2)
	if capAmount.LessThanOrEqual(decimal.Zero) {
		capAmount = s.capDefault
	}
	commission := account.Commission.Decimal.Round(2)
	if commission.LessThan(capAmount) {
		return decimal.Zero, nil
	}

	transfer := trainingCapTransferUnit
	if capAmount.LessThan(transfer) {
		transfer = capAmount
	}
	remainder := commission.Sub(transfer).Round(2)
	if remainder.LessThan(decimal.Zero) {
		remainder = decimal.Zero
	}

	account.Commission = models.ZeroMoney()
	account.Balance = models.ZeroMoney()
	account.Frozen = models.NewMoneyFromDecimal(account.Frozen.Decimal.Add(remainder).Round(2))
	account.IsActive = false
	account.UpdatedAt = now
	if err := accountRepo.Update(account); err != nil {
		return decimal.Zero, ErrAccountUpdateFailed
	}

	debitReference := fmt.Sprintf("training:cap:%d:%d", userID, now.UnixNano())
	debitLog := &models.CommissionLog{
		UserID:           userID,
		AccountType:      constants.AccountTypeTraining,
		Direction:        constants.LedgerDirectionDebit,
		CommissionAmount: models.NewMoneyFromDecimal(transfer),
		CommissionType:   constants.CommissionTypeTrainingCap,
		Description:      "训练账户达到上限转出",
		ReferenceID:      &debitReference,
		CreatedAt:        now,
	}
	if err := logRepo.Create(debitLog); err != nil {
		return decimal.Zero, ErrLedgerWriteFailed
	}

	creditReference := fmt.Sprintf("training:cap:%d:%d:credit", userID, now.UnixNano())
	if _, _, err := s.ledger.CreditInTx(tx, LedgerEntryInput{
		UserID:         userID,
		AccountType:    constants.AccountTypeMain,
		Amount:         models.NewMoneyFromDecimal(transfer),
		CommissionType: constants.CommissionTypeTrainingCap,
		Reference:      creditReference,
		Description:    "训练账户上限转入主账户",
	}); err != nil {
		return decimal.Zero, err
	}
	return transfer, nil
}

func (s *CommissionService) ensureTrainingAccountForUpdate(repo *repository.GormAccountRepository, userID uint, now time.Time) (*models.Account, error) {
	account, err := repo.GetByUserAndTypeForUpdate(userID, constants.AccountTypeTraining)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = newZeroAccount(userID, constants.AccountTypeTraining, now)
	account.Cap = models.NewMoneyFromDecimal(s.capDefault)
	if err := repo.Create(account); err != nil {
		created, queryErr := repo.GetByUserAndTypeForUpdate(userID, constants.AccountTypeTraining)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrAccountCreateFailed
	}
	return account, nil
}
