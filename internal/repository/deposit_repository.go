package repository

import (
	"github.com/tilafu/affiliate-drive/internal/models"

	"gorm.io/gorm"
)

// DepositRepository 入金记录数据访问接口
type DepositRepository interface {
	Create(deposit *models.Deposit) error
	List(filter DepositListFilter) ([]models.Deposit, int64, error)
	WithTx(tx *gorm.DB) *GormDepositRepository
}

// GormDepositRepository GORM 入金记录仓储实现
type GormDepositRepository struct {
	db *gorm.DB
}

// NewDepositRepository 创建入金记录仓储
func NewDepositRepository(db *gorm.DB) *GormDepositRepository {
	return &GormDepositRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDepositRepository) WithTx(tx *gorm.DB) *GormDepositRepository {
	if tx == nil {
		return r
	}
	return &GormDepositRepository{db: tx}
}

// Create 创建入金记录
func (r *GormDepositRepository) Create(deposit *models.Deposit) error {
	return r.db.Create(deposit).Error
}

// List 分页查询入金记录
func (r *GormDepositRepository) List(filter DepositListFilter) ([]models.Deposit, int64, error) {
	query := r.db.Model(&models.Deposit{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.AdminID != 0 {
		query = query.Where("admin_id = ?", filter.AdminID)
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

	var deposits []models.Deposit
	if err := query.Order("id DESC").Find(&deposits).Error; err != nil {
		return nil, 0, err
	}
	return deposits, total, nil
}
