package service

import (
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品目录管理
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	Name               string
	Price              decimal.Decimal
	ImageURL           string
	Description        string
	MinBalanceRequired decimal.Decimal
	IsActive           *bool
}

// UpdateProductInput 更新商品输入，nil 字段不修改
type UpdateProductInput struct {
	Name               *string
	Price              *decimal.Decimal
	ImageURL           *string
	Description        *string
	MinBalanceRequired *decimal.Decimal
	IsActive           *bool
}

// ListAdmin 后台商品列表
func (s *ProductService) ListAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.repo.List(filter)
}

// GetByID 商品详情
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	price := input.Price.Round(2)
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}
	if input.MinBalanceRequired.IsNegative() {
		return nil, ErrProductPriceInvalid
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	now := time.Now()
	product := &models.Product{
		Name:               name,
		Price:              models.NewMoneyFromDecimal(price),
		ImageURL:           strings.TrimSpace(input.ImageURL),
		Description:        input.Description,
		MinBalanceRequired: models.NewMoneyFromDecimal(input.MinBalanceRequired.Round(2)),
		IsActive:           isActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "name", product.Name, "price", price.StringFixed(2))
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, ErrProductNameRequired
		}
		product.Name = trimmed
	}
	if input.Price != nil {
		price := input.Price.Round(2)
		if price.LessThanOrEqual(decimal.Zero) {
			return nil, ErrProductPriceInvalid
		}
		product.Price = models.NewMoneyFromDecimal(price)
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.MinBalanceRequired != nil {
		if input.MinBalanceRequired.IsNegative() {
			return nil, ErrProductPriceInvalid
		}
		product.MinBalanceRequired = models.NewMoneyFromDecimal(input.MinBalanceRequired.Round(2))
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	product.UpdatedAt = time.Now()
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品（软删除）
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	logger.Warnw("product_deleted", "product_id", id, "name", product.Name)
	return nil
}
