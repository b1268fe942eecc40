package admin

import (
	"strconv"

	"github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetDeposits 获取入金记录列表
func (h *Handler) GetDeposits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式不合法", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式不合法", err)
		return
	}

	filter := repository.DepositListFilter{
		Page:        page,
		PageSize:    pageSize,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if rawUserID, parseErr := strconv.ParseUint(c.Query("user_id"), 10, 64); parseErr == nil {
		filter.UserID = uint(rawUserID)
	}
	if rawAdminID, parseErr := strconv.ParseUint(c.Query("admin_id"), 10, 64); parseErr == nil {
		filter.AdminID = uint(rawAdminID)
	}

	deposits, total, err := h.DepositRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取入金记录失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, deposits, pagination)
}

// GetCommissionLogs 获取账务流水列表
func (h *Handler) GetCommissionLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式不合法", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间格式不合法", err)
		return
	}

	filter := repository.CommissionLogListFilter{
		Page:           page,
		PageSize:       pageSize,
		AccountType:    c.Query("account_type"),
		Direction:      c.Query("direction"),
		CommissionType: c.Query("commission_type"),
		CreatedFrom:    createdFrom,
		CreatedTo:      createdTo,
	}
	if rawUserID, parseErr := strconv.ParseUint(c.Query("user_id"), 10, 64); parseErr == nil {
		filter.UserID = uint(rawUserID)
	}
	if rawSourceID, parseErr := strconv.ParseUint(c.Query("source_user_id"), 10, 64); parseErr == nil {
		filter.SourceUserID = uint(rawSourceID)
	}

	logs, total, err := h.LedgerService.ListLogs(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取账务流水失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, logs, pagination)
}
