package service

import (
	"strings"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/shopspring/decimal"
)

// tierTaskQuantities 等级任务数量静态表，未知等级回落到 bronze
var tierTaskQuantities = map[string]int{
	constants.TierBronze:   40,
	constants.TierSilver:   40,
	constants.TierGold:     45,
	constants.TierPlatinum: 50,
}

// DriveConfigService 选品与刷单参数服务
type DriveConfigService struct {
	productRepo repository.ProductRepository
	tierRepo    repository.TierConfigRepository
	bandLow     decimal.Decimal
	bandHigh    decimal.Decimal
	minBalance  decimal.Decimal
}

// DriveConfiguration 一次刷单的选品结果
type DriveConfiguration struct {
	Products   []models.Product
	TierConfig *models.TierQuantityConfig
	Quantity   int
}

// NewDriveConfigService 创建选品服务
func NewDriveConfigService(
	productRepo repository.ProductRepository,
	tierRepo repository.TierConfigRepository,
	bandLowRatio string,
	bandHighRatio string,
	minBalanceRequired string,
) *DriveConfigService {
	bandLow, err := decimal.NewFromString(strings.TrimSpace(bandLowRatio))
	if err != nil || bandLow.LessThanOrEqual(decimal.Zero) {
		bandLow = decimal.RequireFromString("0.80")
	}
	bandHigh, err := decimal.NewFromString(strings.TrimSpace(bandHighRatio))
	if err != nil || bandHigh.LessThanOrEqual(bandLow) {
		bandHigh = decimal.RequireFromString("0.99")
	}
	minBalance, err := decimal.NewFromString(strings.TrimSpace(minBalanceRequired))
	if err != nil || minBalance.LessThan(decimal.Zero) {
		minBalance = decimal.NewFromInt(50)
	}
	return &DriveConfigService{
		productRepo: productRepo,
		tierRepo:    tierRepo,
		bandLow:     bandLow,
		bandHigh:    bandHigh,
		minBalance:  minBalance,
	}
}

// CanAffordDrive 校验余额是否达到开始刷单的门槛
func (s *DriveConfigService) CanAffordDrive(balance decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(s.minBalance)
}

// MinBalanceRequired 返回开始刷单的最低余额
func (s *DriveConfigService) MinBalanceRequired() decimal.Decimal {
	return s.minBalance
}

// ProductsInBalanceRange 在余额价格带内随机选品
func (s *DriveConfigService) ProductsInBalanceRange(balance decimal.Decimal, limit int) ([]models.Product, error) {
	if limit <= 0 {
		return nil, ErrNoProductsInRange
	}
	minPrice := balance.Mul(s.bandLow).Round(2)
	maxPrice := balance.Mul(s.bandHigh).Round(2)
	products, err := s.productRepo.ListActiveInPriceRange(minPrice, maxPrice, limit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoProductsInRange
	}
	return products, nil
}

// TierProductQuantity 等级对应的任务数量
func (s *DriveConfigService) TierProductQuantity(tier string) int {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	if s.tierRepo != nil {
		config, err := s.tierRepo.GetByTierName(normalized)
		if err == nil && config != nil && config.IsActive && config.QuantityLimit > 0 {
			return config.QuantityLimit
		}
	}
	if quantity, ok := tierTaskQuantities[normalized]; ok {
		return quantity
	}
	return tierTaskQuantities[constants.TierBronze]
}

// BuildDriveConfiguration 按等级与余额组装刷单任务配置
func (s *DriveConfigService) BuildDriveConfiguration(tier string, balance decimal.Decimal) (*DriveConfiguration, error) {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	quantity := s.TierProductQuantity(normalized)

	var tierConfig *models.TierQuantityConfig
	if s.tierRepo != nil {
		config, err := s.tierRepo.GetByTierName(normalized)
		if err != nil {
			return nil, err
		}
		if config != nil && config.IsActive {
			tierConfig = config
		}
	}

	products, err := s.ProductsInBalanceRange(balance, quantity)
	if err != nil {
		return nil, err
	}
	return &DriveConfiguration{
		Products:   products,
		TierConfig: tierConfig,
		Quantity:   quantity,
	}, nil
}

// ResolveCommissionRate 结算用佣金率，优先取等级配置
func (s *DriveConfigService) ResolveCommissionRate(tierConfig *models.TierQuantityConfig, tier, taskType string) decimal.Decimal {
	if tierConfig != nil && tierConfig.CommissionRate.Decimal.GreaterThan(decimal.Zero) {
		return tierConfig.CommissionRate.Decimal.Div(decimal.NewFromInt(100))
	}
	rates := RatesForTier(tier)
	if strings.EqualFold(strings.TrimSpace(taskType), constants.DriveTaskTypeCombo) {
		return rates.Combo
	}
	return rates.Single
}
