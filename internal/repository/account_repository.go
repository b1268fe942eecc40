package repository

import (
	"errors"

	"github.com/tilafu/affiliate-drive/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository 资金账户数据访问接口
type AccountRepository interface {
	GetByUserAndType(userID uint, accountType string) (*models.Account, error)
	GetByUserAndTypeForUpdate(userID uint, accountType string) (*models.Account, error)
	ListByUserID(userID uint) ([]models.Account, error)
	ListByUserIDs(userIDs []uint) ([]models.Account, error)
	Create(account *models.Account) error
	Update(account *models.Account) error
	WithTx(tx *gorm.DB) *GormAccountRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormAccountRepository GORM 资金账户仓储实现
type GormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建资金账户仓储
func NewAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAccountRepository) WithTx(tx *gorm.DB) *GormAccountRepository {
	if tx == nil {
		return r
	}
	return &GormAccountRepository{db: tx}
}

// Transaction 在数据库事务中执行
func (r *GormAccountRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByUserAndType 按用户与账户类型获取账户
func (r *GormAccountRepository) GetByUserAndType(userID uint, accountType string) (*models.Account, error) {
	if userID == 0 || accountType == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Where("user_id = ? AND type = ?", userID, accountType).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByUserAndTypeForUpdate 按用户与账户类型加锁获取账户
func (r *GormAccountRepository) GetByUserAndTypeForUpdate(userID uint, accountType string) (*models.Account, error) {
	if userID == 0 || accountType == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND type = ?", userID, accountType).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ListByUserID 获取用户全部账户
func (r *GormAccountRepository) ListByUserID(userID uint) ([]models.Account, error) {
	if userID == 0 {
		return []models.Account{}, nil
	}
	var accounts []models.Account
	if err := r.db.Where("user_id = ?", userID).Order("type").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListByUserIDs 批量获取账户
func (r *GormAccountRepository) ListByUserIDs(userIDs []uint) ([]models.Account, error) {
	if len(userIDs) == 0 {
		return []models.Account{}, nil
	}
	var accounts []models.Account
	if err := r.db.Where("user_id IN ?", userIDs).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create 创建账户
func (r *GormAccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// Update 更新账户
func (r *GormAccountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}
