package admin

import (
	"strconv"

	"github.com/tilafu/affiliate-drive/internal/http/handlers/shared"
	"github.com/tilafu/affiliate-drive/internal/http/response"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetDriveSessions 获取做单会话列表
func (h *Handler) GetDriveSessions(c *gin.Context) {
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

	filter := repository.DriveSessionListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.Query("status"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if rawUserID, parseErr := strconv.ParseUint(c.Query("user_id"), 10, 64); parseErr == nil {
		filter.UserID = uint(rawUserID)
	}

	sessions, total, err := h.DriveService.ListSessions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取做单会话失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, sessions, pagination)
}

// GetDriveSessionItems 获取会话内任务明细
func (h *Handler) GetDriveSessionItems(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}

	items, err := h.DriveService.ListSessionItems(id)
	if err != nil {
		respondError(c, response.CodeInternal, "获取任务明细失败", err)
		return
	}
	response.Success(c, items)
}
