package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/repository"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
	}
	switch c.Query("is_active") {
	case "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	}

	products, total, err := h.ProductService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取商品列表失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, products, pagination)
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	product, err := h.ProductService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "商品不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取商品失败", err)
		return
	}
	response.Success(c, product)
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name               string `json:"name" binding:"required"`
	Price              string `json:"price" binding:"required"`
	ImageURL           string `json:"image_url"`
	Description        string `json:"description"`
	MinBalanceRequired string `json:"min_balance_required"`
	IsActive           *bool  `json:"is_active"`
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		respondError(c, response.CodeBadRequest, service.ErrProductPriceInvalid.Error(), err)
		return
	}
	minBalance := decimal.Zero
	if strings.TrimSpace(req.MinBalanceRequired) != "" {
		minBalance, err = decimal.NewFromString(strings.TrimSpace(req.MinBalanceRequired))
		if err != nil {
			respondError(c, response.CodeBadRequest, service.ErrProductPriceInvalid.Error(), err)
			return
		}
	}

	product, err := h.ProductService.Create(service.CreateProductInput{
		Name:               req.Name,
		Price:              price,
		ImageURL:           req.ImageURL,
		Description:        req.Description,
		MinBalanceRequired: minBalance,
		IsActive:           req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNameRequired), errors.Is(err, service.ErrProductPriceInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "创建商品失败", err)
		}
		return
	}
	response.Success(c, product)
}

// UpdateProductRequest 更新商品请求，未提供的字段不修改
type UpdateProductRequest struct {
	Name               *string `json:"name"`
	Price              *string `json:"price"`
	ImageURL           *string `json:"image_url"`
	Description        *string `json:"description"`
	MinBalanceRequired *string `json:"min_balance_required"`
	IsActive           *bool   `json:"is_active"`
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	input := service.UpdateProductInput{
		Name:        req.Name,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil {
			respondError(c, response.CodeBadRequest, service.ErrProductPriceInvalid.Error(), err)
			return
		}
		input.Price = &price
	}
	if req.MinBalanceRequired != nil {
		minBalance, err := decimal.NewFromString(strings.TrimSpace(*req.MinBalanceRequired))
		if err != nil {
			respondError(c, response.CodeBadRequest, service.ErrProductPriceInvalid.Error(), err)
			return
		}
		input.MinBalanceRequired = &minBalance
	}

	product, err := h.ProductService.Update(id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "商品不存在", nil)
		case errors.Is(err, service.ErrProductNameRequired), errors.Is(err, service.ErrProductPriceInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "更新商品失败", err)
		}
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.ProductService.Delete(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "商品不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "删除商品失败", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parsePathID(c *gin.Context) (uint, bool) {
	rawID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rawID == 0 {
		respondError(c, response.CodeBadRequest, "编号不合法", err)
		return 0, false
	}
	return uint(rawID), true
}
