package public

import (
	"errors"
	"strconv"

	"github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/repository"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCurrentUser 获取当前登录用户信息
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, service.ErrNotFound.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "获取用户信息失败", err)
		return
	}

	unread, err := h.NotificationService.CountUnread(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "获取用户信息失败", err)
		return
	}

	view := buildUserView(user)
	view["unread_notifications"] = unread
	response.Success(c, view)
}

// GetMyAccounts 获取当前用户的账户余额
func (h *Handler) GetMyAccounts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	accounts, err := h.LedgerService.ListAccounts(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "获取账户信息失败", err)
		return
	}
	response.Success(c, accounts)
}

// GetMyCommissions 获取当前用户的账务流水
func (h *Handler) GetMyCommissions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	logs, total, err := h.LedgerService.ListLogs(repository.CommissionLogListFilter{
		Page:           page,
		PageSize:       pageSize,
		UserID:         uid,
		AccountType:    c.Query("account_type"),
		Direction:      c.Query("direction"),
		CommissionType: c.Query("commission_type"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取流水失败", err)
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

// GetMyNotifications 获取当前用户的通知列表
func (h *Handler) GetMyNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	notifications, total, err := h.NotificationService.List(repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uid,
		Type:       c.Query("type"),
		UnreadOnly: c.Query("unread_only") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取通知失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, notifications, pagination)
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	rawID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rawID == 0 {
		respondError(c, response.CodeBadRequest, "通知编号不合法", err)
		return
	}

	if err := h.NotificationService.MarkRead(uid, uint(rawID)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, service.ErrNotFound.Error(), nil)
			return
		}
		respondError(c, response.CodeInternal, "标记通知失败", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}
