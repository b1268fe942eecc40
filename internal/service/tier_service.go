package service

import (
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/shopspring/decimal"
)

// TierService 等级做单配置管理
type TierService struct {
	tierRepo repository.TierConfigRepository
	userRepo repository.UserRepository
}

// NewTierService 创建等级配置服务
func NewTierService(tierRepo repository.TierConfigRepository, userRepo repository.UserRepository) *TierService {
	return &TierService{tierRepo: tierRepo, userRepo: userRepo}
}

// CreateTierConfigInput 创建等级配置输入
type CreateTierConfigInput struct {
	TierName       string
	QuantityLimit  int
	NumSingleTasks int
	NumComboTasks  int
	MinPriceSingle models.Money
	MaxPriceSingle models.Money
	MinPriceCombo  models.Money
	MaxPriceCombo  models.Money
	CommissionRate models.Money
	Description    string
	IsActive       *bool
}

// UpdateTierConfigInput 更新等级配置输入，nil 字段不修改
type UpdateTierConfigInput struct {
	QuantityLimit  *int
	NumSingleTasks *int
	NumComboTasks  *int
	MinPriceSingle *models.Money
	MaxPriceSingle *models.Money
	MinPriceCombo  *models.Money
	MaxPriceCombo  *models.Money
	CommissionRate *models.Money
	Description    *string
	IsActive       *bool
}

// List 分页查询等级配置
func (s *TierService) List(filter repository.TierConfigListFilter) ([]models.TierQuantityConfig, int64, error) {
	return s.tierRepo.List(filter)
}

// Get 按 ID 查询等级配置
func (s *TierService) Get(id uint) (*models.TierQuantityConfig, error) {
	config, err := s.tierRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, ErrTierConfigNotFound
	}
	return config, nil
}

// GetByTierName 按等级名查询配置
func (s *TierService) GetByTierName(tierName string) (*models.TierQuantityConfig, error) {
	config, err := s.tierRepo.GetByTierName(tierName)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, ErrTierConfigNotFound
	}
	return config, nil
}

// Create 创建等级配置，等级名唯一
func (s *TierService) Create(input CreateTierConfigInput) (*models.TierQuantityConfig, error) {
	tierName := strings.ToLower(strings.TrimSpace(input.TierName))
	if tierName == "" {
		return nil, ErrTierUnknown
	}
	existing, err := s.tierRepo.GetByTierName(tierName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTierConfigExists
	}

	if input.QuantityLimit <= 0 {
		return nil, ErrTierQuantityInvalid
	}
	if input.NumSingleTasks < 0 || input.NumComboTasks < 0 {
		return nil, ErrTierQuantityInvalid
	}
	if err := validatePriceBand(input.MinPriceSingle.Decimal, input.MaxPriceSingle.Decimal); err != nil {
		return nil, err
	}
	if err := validatePriceBand(input.MinPriceCombo.Decimal, input.MaxPriceCombo.Decimal); err != nil {
		return nil, err
	}

	now := time.Now()
	config := &models.TierQuantityConfig{
		TierName:       tierName,
		QuantityLimit:  input.QuantityLimit,
		NumSingleTasks: input.NumSingleTasks,
		NumComboTasks:  input.NumComboTasks,
		MinPriceSingle: input.MinPriceSingle,
		MaxPriceSingle: input.MaxPriceSingle,
		MinPriceCombo:  input.MinPriceCombo,
		MaxPriceCombo:  input.MaxPriceCombo,
		CommissionRate: input.CommissionRate,
		Description:    strings.TrimSpace(input.Description),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.IsActive != nil {
		config.IsActive = *input.IsActive
	}
	if err := s.tierRepo.Create(config); err != nil {
		return nil, err
	}
	logger.Infow("tier_config_created", "tier_name", tierName, "quantity_limit", config.QuantityLimit)
	return config, nil
}

// Update 更新等级配置
func (s *TierService) Update(id uint, input UpdateTierConfigInput) (*models.TierQuantityConfig, error) {
	config, err := s.tierRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, ErrTierConfigNotFound
	}

	if input.QuantityLimit != nil {
		if *input.QuantityLimit <= 0 {
			return nil, ErrTierQuantityInvalid
		}
		config.QuantityLimit = *input.QuantityLimit
	}
	if input.NumSingleTasks != nil {
		if *input.NumSingleTasks < 0 {
			return nil, ErrTierQuantityInvalid
		}
		config.NumSingleTasks = *input.NumSingleTasks
	}
	if input.NumComboTasks != nil {
		if *input.NumComboTasks < 0 {
			return nil, ErrTierQuantityInvalid
		}
		config.NumComboTasks = *input.NumComboTasks
	}
	if input.MinPriceSingle != nil {
		config.MinPriceSingle = *input.MinPriceSingle
	}
	if input.MaxPriceSingle != nil {
		config.MaxPriceSingle = *input.MaxPriceSingle
	}
	if input.MinPriceCombo != nil {
		config.MinPriceCombo = *input.MinPriceCombo
	}
	if input.MaxPriceCombo != nil {
		config.MaxPriceCombo = *input.MaxPriceCombo
	}
	if input.CommissionRate != nil {
		config.CommissionRate = *input.CommissionRate
	}
	if input.Description != nil {
		config.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		config.IsActive = *input.IsActive
	}

	if err := validatePriceBand(config.MinPriceSingle.Decimal, config.MaxPriceSingle.Decimal); err != nil {
		return nil, err
	}
	if err := validatePriceBand(config.MinPriceCombo.Decimal, config.MaxPriceCombo.Decimal); err != nil {
		return nil, err
	}

	config.UpdatedAt = time.Now()
	if err := s.tierRepo.Update(config); err != nil {
		return nil, err
	}
	logger.Infow("tier_config_updated", "tier_name", config.TierName, "config_id", config.ID)
	return config, nil
}

// Delete 删除等级配置，仍有用户持有该等级时拒绝
func (s *TierService) Delete(id uint) error {
	config, err := s.tierRepo.GetByID(id)
	if err != nil {
		return err
	}
	if config == nil {
		return ErrTierConfigNotFound
	}

	count, err := s.userRepo.CountByTier(config.TierName)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrTierConfigInUse
	}

	if err := s.tierRepo.Delete(id); err != nil {
		return err
	}
	logger.Warnw("tier_config_deleted", "tier_name", config.TierName, "config_id", id)
	return nil
}

// KnownTierNames 内置等级名
func KnownTierNames() []string {
	return []string{constants.TierBronze, constants.TierSilver, constants.TierGold, constants.TierPlatinum}
}

func validatePriceBand(min, max decimal.Decimal) error {
	if min.IsNegative() || max.IsNegative() {
		return ErrTierPriceBandInvalid
	}
	if max.GreaterThan(decimal.Zero) && min.GreaterThan(max) {
		return ErrTierPriceBandInvalid
	}
	return nil
}
