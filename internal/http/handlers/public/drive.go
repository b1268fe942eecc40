package public

import (
	"errors"

	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/repository"
	"github.com/tilafu/affiliate-drive/internal/service"

	"github.com/gin-gonic/gin"
)

// StartDrive 开始做单，已有未结束会话时恢复当前任务
func (h *Handler) StartDrive(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	result, err := h.DriveService.Start(uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDriveMinBalance), errors.Is(err, service.ErrNoProductsInRange):
			response.Success(c, gin.H{"code": 1, "info": err.Error()})
		default:
			respondWithMappedError(c, err, driveHandlerErrors, response.CodeInternal, "开始做单失败")
		}
		return
	}

	info := "做单会话已创建"
	if result.Resumed {
		info = "存在进行中的会话，已恢复当前任务"
	}
	response.Success(c, gin.H{
		"code":    0,
		"info":    info,
		"resumed": result.Resumed,
		"session": result.Session,
		"task":    result.Task,
	})
}

// GetDriveOrder 获取当前待完成任务
func (h *Handler) GetDriveOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	task, completed, err := h.DriveService.GetOrder(uid)
	if err != nil {
		respondWithMappedError(c, err, driveHandlerErrors, response.CodeInternal, "获取任务失败")
		return
	}
	if completed {
		response.Success(c, gin.H{"code": 2, "info": "本轮任务已全部完成"})
		return
	}
	response.Success(c, gin.H{"code": 0, "task": task})
}

// SaveDriveOrderRequest 提交任务结算请求
type SaveDriveOrderRequest struct {
	OrderID       uint   `json:"order_id"`
	ProductID     uint   `json:"product_id"`
	ProductNumber string `json:"product_number" binding:"required"`
	// 客户端回显字段，金额以服务端计算为准
	OrderAmount       string `json:"order_amount"`
	EarningCommission string `json:"earning_commission"`
}

// SaveDriveOrder 结算当前任务
func (h *Handler) SaveDriveOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req SaveDriveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	result, err := h.DriveService.SaveOrder(service.SettleOrderInput{
		UserID:        uid,
		ItemID:        req.OrderID,
		ProductID:     req.ProductID,
		ProductNumber: req.ProductNumber,
	})
	if err != nil {
		respondWithMappedError(c, err, driveHandlerErrors, response.CodeInternal, "结算任务失败")
		return
	}

	if result.Frozen {
		response.Success(c, gin.H{
			"code":                 3,
			"info":                 "余额不足，会话已冻结",
			"frozen_amount_needed": models.NewMoneyFromDecimal(result.FrozenAmountNeeded),
		})
		return
	}

	response.Success(c, gin.H{
		"code":       0,
		"completed":  result.Completed,
		"balance":    models.NewMoneyFromDecimal(result.Balance),
		"commission": models.NewMoneyFromDecimal(result.Commission),
		"session":    result.Session,
	})
}

// GetDriveStatus 查询做单会话状态
func (h *Handler) GetDriveStatus(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	status, err := h.DriveService.Status(uid)
	if err != nil {
		respondWithMappedError(c, err, driveHandlerErrors, response.CodeInternal, "查询会话状态失败")
		return
	}

	payload := gin.H{
		"code":   0,
		"status": status.Status,
	}
	if status.Session != nil {
		payload["session"] = status.Session
	}
	if status.CurrentTask != nil {
		payload["current_order"] = status.CurrentTask
	}
	if status.FrozenAmountNeeded != nil {
		payload["frozen_amount_needed"] = status.FrozenAmountNeeded
	}
	response.Success(c, payload)
}

// CheckDriveUnfreeze 余额补足后尝试解除冻结
func (h *Handler) CheckDriveUnfreeze(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	unfrozen, err := h.DriveService.CheckUnfreeze(uid)
	if err != nil {
		respondWithMappedError(c, err, driveHandlerErrors, response.CodeInternal, "解冻检查失败")
		return
	}
	response.Success(c, gin.H{"unfrozen": unfrozen})
}

// ListDriveOrders 查看最近一轮会话的任务明细
func (h *Handler) ListDriveOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	sessions, _, err := h.DriveService.ListSessions(repository.DriveSessionListFilter{
		UserID:   uid,
		Page:     1,
		PageSize: 1,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取任务明细失败", err)
		return
	}
	if len(sessions) == 0 {
		response.Success(c, gin.H{"session": nil, "items": []models.DriveItem{}})
		return
	}

	items, err := h.DriveService.ListSessionItems(sessions[0].ID)
	if err != nil {
		respondError(c, response.CodeInternal, "获取任务明细失败", err)
		return
	}
	response.Success(c, gin.H{"session": sessions[0], "items": items})
}
