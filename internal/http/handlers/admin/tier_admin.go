package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetTierConfigs 获取等级配置列表
func (h *Handler) GetTierConfigs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	configs, total, err := h.TierService.List(repository.TierConfigListFilter{
		Page:       page,
		PageSize:   pageSize,
		TierName:   c.Query("tier_name"),
		OnlyActive: c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取等级配置失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, configs, pagination)
}

// GetTierConfig 获取等级配置详情
func (h *Handler) GetTierConfig(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	config, err := h.TierService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrTierConfigNotFound) {
			respondError(c, response.CodeNotFound, service.ErrTierConfigNotFound.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "获取等级配置失败", err)
		return
	}
	response.Success(c, config)
}

// CreateTierConfigRequest 创建等级配置请求
type CreateTierConfigRequest struct {
	TierName       string  `json:"tier_name" binding:"required"`
	QuantityLimit  int     `json:"quantity_limit" binding:"required"`
	NumSingleTasks int     `json:"num_single_tasks"`
	NumComboTasks  int     `json:"num_combo_tasks"`
	MinPriceSingle string  `json:"min_price_single"`
	MaxPriceSingle string  `json:"max_price_single"`
	MinPriceCombo  string  `json:"min_price_combo"`
	MaxPriceCombo  string  `json:"max_price_combo"`
	CommissionRate string  `json:"commission_rate"`
	Description    string  `json:"description"`
	IsActive       *bool   `json:"is_active"`
}

// CreateTierConfig 创建等级配置
func (h *Handler) CreateTierConfig(c *gin.Context) {
	var req CreateTierConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	input := service.CreateTierConfigInput{
		TierName:       req.TierName,
		QuantityLimit:  req.QuantityLimit,
		NumSingleTasks: req.NumSingleTasks,
		NumComboTasks:  req.NumComboTasks,
		Description:    req.Description,
		IsActive:       req.IsActive,
	}

	fields := []struct {
		raw  string
		dest *models.Money
	}{
		{req.MinPriceSingle, &input.MinPriceSingle},
		{req.MaxPriceSingle, &input.MaxPriceSingle},
		{req.MinPriceCombo, &input.MinPriceCombo},
		{req.MaxPriceCombo, &input.MaxPriceCombo},
		{req.CommissionRate, &input.CommissionRate},
	}
	for _, field := range fields {
		amount, ok := parseMoneyField(c, field.raw)
		if !ok {
			return
		}
		*field.dest = amount
	}

	config, err := h.TierService.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTierConfigExists):
			respondError(c, response.CodeBadRequest, service.ErrTierConfigExists.Error(), nil)
		case errors.Is(err, service.ErrTierUnknown),
			errors.Is(err, service.ErrTierQuantityInvalid),
			errors.Is(err, service.ErrTierPriceBandInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "创建等级配置失败", err)
		}
		return
	}
	response.Success(c, config)
}

// UpdateTierConfigRequest 更新等级配置请求，未提供的字段不修改
type UpdateTierConfigRequest struct {
	QuantityLimit  *int    `json:"quantity_limit"`
	NumSingleTasks *int    `json:"num_single_tasks"`
	NumComboTasks  *int    `json:"num_combo_tasks"`
	MinPriceSingle *string `json:"min_price_single"`
	MaxPriceSingle *string `json:"max_price_single"`
	MinPriceCombo  *string `json:"min_price_combo"`
	MaxPriceCombo  *string `json:"max_price_combo"`
	CommissionRate *string `json:"commission_rate"`
	Description    *string `json:"description"`
	IsActive       *bool   `json:"is_active"`
}

// UpdateTierConfig 更新等级配置
func (h *Handler) UpdateTierConfig(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req UpdateTierConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	input := service.UpdateTierConfigInput{
		QuantityLimit:  req.QuantityLimit,
		NumSingleTasks: req.NumSingleTasks,
		NumComboTasks:  req.NumComboTasks,
		Description:    req.Description,
		IsActive:       req.IsActive,
	}

	fields := []struct {
		raw  *string
		dest **models.Money
	}{
		{req.MinPriceSingle, &input.MinPriceSingle},
		{req.MaxPriceSingle, &input.MaxPriceSingle},
		{req.MinPriceCombo, &input.MinPriceCombo},
		{req.MaxPriceCombo, &input.MaxPriceCombo},
		{req.CommissionRate, &input.CommissionRate},
	}
	for _, field := range fields {
		if field.raw == nil {
			continue
		}
		amount, ok := parseMoneyField(c, *field.raw)
		if !ok {
			return
		}
		*field.dest = &amount
	}

	config, err := h.TierService.Update(id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTierConfigNotFound):
			respondError(c, response.CodeNotFound, service.ErrTierConfigNotFound.Error(), nil)
		case errors.Is(err, service.ErrTierQuantityInvalid),
			errors.Is(err, service.ErrTierPriceBandInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "更新等级配置失败", err)
		}
		return
	}
	response.Success(c, config)
}

// DeleteTierConfig 删除等级配置
func (h *Handler) DeleteTierConfig(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.TierService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrTierConfigNotFound):
			respondError(c, response.CodeNotFound, service.ErrTierConfigNotFound.Error(), nil)
		case errors.Is(err, service.ErrTierConfigInUse):
			respondError(c, response.CodeBadRequest, service.ErrTierConfigInUse.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "删除等级配置失败", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parseMoneyField(c *gin.Context, raw string) (models.Money, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Money{}, true
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额格式不合法", err)
		return models.Money{}, false
	}
	return models.NewMoneyFromDecimal(amount), true
}
