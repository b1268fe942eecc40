package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
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

	users, total, err := h.UserAdminService.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     c.Query("keyword"),
		Status:      c.Query("status"),
		Tier:        c.Query("tier"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取用户列表失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, users, pagination)
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	detail, err := h.UserAdminService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取用户详情失败", err)
		return
	}
	response.Success(c, detail)
}

// SetUserTierRequest 调整用户等级请求
type SetUserTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// SetUserTier 调整用户等级
func (h *Handler) SetUserTier(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req SetUserTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	user, err := h.UserAdminService.SetTier(adminID, id, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTierUnknown):
			respondError(c, response.CodeBadRequest, service.ErrTierUnknown.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "调整用户等级失败", err)
		}
		return
	}
	response.Success(c, user)
}

// SetUserStatusRequest 调整用户状态请求
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserStatus 启用或禁用用户
func (h *Handler) SetUserStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	user, err := h.UserAdminService.SetStatus(adminID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserStatusInvalid):
			respondError(c, response.CodeBadRequest, service.ErrUserStatusInvalid.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "调整用户状态失败", err)
		}
		return
	}
	response.Success(c, user)
}

// GetUserAccounts 查看用户账户余额
func (h *Handler) GetUserAccounts(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	accounts, err := h.LedgerService.ListAccounts(id)
	if err != nil {
		respondError(c, response.CodeInternal, "获取用户账户失败", err)
		return
	}
	response.Success(c, accounts)
}

// CreateUserDepositRequest 管理员入金请求
type CreateUserDepositRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// CreateUserDeposit 管理员为用户主账户入金
func (h *Handler) CreateUserDeposit(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	var req CreateUserDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, service.ErrInvalidAmount.Error(), err)
		return
	}

	account, err := h.DriveService.AdminDeposit(adminID, id, models.NewMoneyFromDecimal(amount), req.Description)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			respondError(c, response.CodeBadRequest, service.ErrInvalidAmount.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "入金失败", err)
		}
		return
	}

	requestLog(c).Infow("admin_deposit_created",
		"admin_id", adminID,
		"user_id", id,
		"amount", amount.StringFixed(2),
	)
	response.Success(c, account)
}

// ResetUserDrive 重置用户当前做单会话
func (h *Handler) ResetUserDrive(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.DriveService.AdminReset(adminID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			respondError(c, response.CodeNotFound, service.ErrSessionNotFound.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "重置做单会话失败", err)
		}
		return
	}
	response.Success(c, gin.H{"reset": true})
}

// UnfreezeUserDrive 管理员解除会话冻结
func (h *Handler) UnfreezeUserDrive(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	if err := h.DriveService.AdminUnfreeze(adminID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFrozen):
			respondError(c, response.CodeBadRequest, service.ErrSessionNotFrozen.Error(), nil)
		case errors.Is(err, service.ErrSessionNotFound):
			respondError(c, response.CodeNotFound, service.ErrSessionNotFound.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "解除冻结失败", err)
		}
		return
	}
	response.Success(c, gin.H{"unfrozen": true})
}

func parseTimeNullable(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return &parsed, nil
		}
	}
	return nil, errors.New("unsupported time format: " + trimmed)
}
