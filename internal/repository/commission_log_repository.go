package repository

import (
	"errors"
	"strings"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionLogRepository 佣金流水数据访问接口
type CommissionLogRepository interface {
	Create(log *models.CommissionLog) error
	GetByReference(reference string) (*models.CommissionLog, error)
	List(filter CommissionLogListFilter) ([]models.CommissionLog, int64, error)
	SumByUserAndAccountType(userID uint, accountType string) (decimal.Decimal, error)
	WithTx(tx *gorm.DB) *GormCommissionLogRepository
}

// GormCommissionLogRepository GORM 佣金流水仓储实现
type GormCommissionLogRepository struct {
	db *gorm.DB
}

// NewCommissionLogRepository 创建佣金流水仓储
func NewCommissionLogRepository(db *gorm.DB) *GormCommissionLogRepository {
	return &GormCommissionLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionLogRepository) WithTx(tx *gorm.DB) *GormCommissionLogRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionLogRepository{db: tx}
}

// Create 追加佣金流水
func (r *GormCommissionLogRepository) Create(log *models.CommissionLog) error {
	return r.db.Create(log).Error
}

// GetByReference 按参考号获取佣金流水
func (r *GormCommissionLogRepository) GetByReference(reference string) (*models.CommissionLog, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var log models.CommissionLog
	if err := r.db.Where("reference_id = ?", reference).First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

// List 分页查询佣金流水
func (r *GormCommissionLogRepository) List(filter CommissionLogListFilter) ([]models.CommissionLog, int64, error) {
	query := r.db.Model(&models.CommissionLog{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.SourceUserID != 0 {
		query = query.Where("source_user_id = ?", filter.SourceUserID)
	}
	if filter.AccountType != "" {
		query = query.Where("account_type = ?", filter.AccountType)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CommissionType != "" {
		query = query.Where("commission_type = ?", filter.CommissionType)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.CommissionLog
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// SumByUserAndAccountType 统计用户在某账户上的净佣金
func (r *GormCommissionLogRepository) SumByUserAndAccountType(userID uint, accountType string) (decimal.Decimal, error) {
	if userID == 0 {
		return decimal.Zero, nil
	}
	type row struct {
		Direction string
		Total     decimal.Decimal
	}
	var rows []row
	query := r.db.Model(&models.CommissionLog{}).
		Select("direction, COALESCE(SUM(commission_amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("direction")
	if accountType != "" {
		query = query.Where("account_type = ?", accountType)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range rows {
		if item.Direction == constants.LedgerDirectionDebit {
			total = total.Sub(item.Total)
			continue
		}
		total = total.Add(item.Total)
	}
	return total, nil
}
