package repository

import (
	"errors"
	"strings"

	"github.com/tilafu/affiliate-drive/internal/models"

	"gorm.io/gorm"
)

// TierConfigRepository 等级配置数据访问接口
type TierConfigRepository interface {
	List(filter TierConfigListFilter) ([]models.TierQuantityConfig, int64, error)
	GetByID(id uint) (*models.TierQuantityConfig, error)
	GetByTierName(tierName string) (*models.TierQuantityConfig, error)
	Create(config *models.TierQuantityConfig) error
	Update(config *models.TierQuantityConfig) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormTierConfigRepository
}

// GormTierConfigRepository GORM 等级配置仓储实现
type GormTierConfigRepository struct {
	db *gorm.DB
}

// NewTierConfigRepository 创建等级配置仓储
func NewTierConfigRepository(db *gorm.DB) *GormTierConfigRepository {
	return &GormTierConfigRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTierConfigRepository) WithTx(tx *gorm.DB) *GormTierConfigRepository {
	if tx == nil {
		return r
	}
	return &GormTierConfigRepository{db: tx}
}

// List 等级配置列表
func (r *GormTierConfigRepository) List(filter TierConfigListFilter) ([]models.TierQuantityConfig, int64, error) {
	query := r.db.Model(&models.TierQuantityConfig{})

	if filter.TierName != "" {
		query = query.Where("tier_name = ?", strings.ToLower(strings.TrimSpace(filter.TierName)))
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var configs []models.TierQuantityConfig
	if err := query.Order("id ASC").Find(&configs).Error; err != nil {
		return nil, 0, err
	}
	return configs, total, nil
}

// GetByID 根据 ID 获取等级配置
func (r *GormTierConfigRepository) GetByID(id uint) (*models.TierQuantityConfig, error) {
	if id == 0 {
		return nil, nil
	}
	var config models.TierQuantityConfig
	if err := r.db.First(&config, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// GetByTierName 根据等级名获取配置
func (r *GormTierConfigRepository) GetByTierName(tierName string) (*models.TierQuantityConfig, error) {
	tierName = strings.ToLower(strings.TrimSpace(tierName))
	if tierName == "" {
		return nil, nil
	}
	var config models.TierQuantityConfig
	if err := r.db.Where("tier_name = ?", tierName).First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// Create 创建等级配置
func (r *GormTierConfigRepository) Create(config *models.TierQuantityConfig) error {
	return r.db.Create(config).Error
}

// Update 更新等级配置
func (r *GormTierConfigRepository) Update(config *models.TierQuantityConfig) error {
	return r.db.Save(config).Error
}

// Delete 删除等级配置
func (r *GormTierConfigRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.TierQuantityConfig{}, id).Error
}
