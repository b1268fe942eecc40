package repository

import (
	"errors"
	"strings"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DriveRepository 刷单会话与任务项数据访问接口
type DriveRepository interface {
	CreateSession(session *models.DriveSession) error
	UpdateSession(session *models.DriveSession) error
	GetSessionByID(id uint) (*models.DriveSession, error)
	GetSessionByIDForUpdate(id uint) (*models.DriveSession, error)
	GetSessionByUUID(sessionUUID string) (*models.DriveSession, error)
	GetActiveSessionByUserID(userID uint) (*models.DriveSession, error)
	GetActiveSessionByUserIDForUpdate(userID uint) (*models.DriveSession, error)
	ListSessions(filter DriveSessionListFilter) ([]models.DriveSession, int64, error)
	CreateItems(items []models.DriveItem) error
	UpdateItem(item *models.DriveItem) error
	GetItemByID(id uint) (*models.DriveItem, error)
	GetItemByProductNumber(productNumber string) (*models.DriveItem, error)
	GetCurrentItem(sessionID uint) (*models.DriveItem, error)
	GetNextPendingItem(sessionID uint) (*models.DriveItem, error)
	ListItemsBySession(sessionID uint) ([]models.DriveItem, error)
	CountItemsByStatus(sessionID uint, status string) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormDriveRepository
}

// liveSessionStatuses 仍占用用户的会话状态
var liveSessionStatuses = []string{
	constants.DriveSessionStatusActive,
	constants.DriveSessionStatusFrozen,
	constants.DriveSessionStatusPendingReset,
}

// GormDriveRepository GORM 刷单仓储实现
type GormDriveRepository struct {
	db *gorm.DB
}

// NewDriveRepository 创建刷单仓储
func NewDriveRepository(db *gorm.DB) *GormDriveRepository {
	return &GormDriveRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDriveRepository) WithTx(tx *gorm.DB) *GormDriveRepository {
	if tx == nil {
		return r
	}
	return &GormDriveRepository{db: tx}
}

// Transaction 在数据库事务中执行
func (r *GormDriveRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateSession 创建刷单会话
func (r *GormDriveRepository) CreateSession(session *models.DriveSession) error {
	return r.db.Create(session).Error
}

// UpdateSession 更新刷单会话
func (r *GormDriveRepository) UpdateSession(session *models.DriveSession) error {
	return r.db.Save(session).Error
}

// GetSessionByID 根据 ID 获取会话
func (r *GormDriveRepository) GetSessionByID(id uint) (*models.DriveSession, error) {
	if id == 0 {
		return nil, nil
	}
	var session models.DriveSession
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionByIDForUpdate 根据 ID 加锁获取会话
func (r *GormDriveRepository) GetSessionByIDForUpdate(id uint) (*models.DriveSession, error) {
	if id == 0 {
		return nil, nil
	}
	var session models.DriveSession
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionByUUID 根据会话 UUID 获取会话
func (r *GormDriveRepository) GetSessionByUUID(sessionUUID string) (*models.DriveSession, error) {
	sessionUUID = strings.TrimSpace(sessionUUID)
	if sessionUUID == "" {
		return nil, nil
	}
	var session models.DriveSession
	if err := r.db.Where("session_uuid = ?", sessionUUID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetActiveSessionByUserID 获取用户当前未结束的会话
func (r *GormDriveRepository) GetActiveSessionByUserID(userID uint) (*models.DriveSession, error) {
	if userID == 0 {
		return nil, nil
	}
	var session models.DriveSession
	if err := r.db.Where("user_id = ? AND status IN ?", userID, liveSessionStatuses).
		Order("id DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetActiveSessionByUserIDForUpdate 加锁获取用户当前未结束的会话
func (r *GormDriveRepository) GetActiveSessionByUserIDForUpdate(userID uint) (*models.DriveSession, error) {
	if userID == 0 {
		return nil, nil
	}
	var session models.DriveSession
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status IN ?", userID, liveSessionStatuses).
		Order("id DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListSessions 分页查询会话
func (r *GormDriveRepository) ListSessions(filter DriveSessionListFilter) ([]models.DriveSession, int64, error) {
	query := r.db.Model(&models.DriveSession{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var sessions []models.DriveSession
	if err := query.Order("id DESC").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// CreateItems 批量创建任务项
func (r *GormDriveRepository) CreateItems(items []models.DriveItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// UpdateItem 更新任务项
func (r *GormDriveRepository) UpdateItem(item *models.DriveItem) error {
	return r.db.Save(item).Error
}

// GetItemByID 根据 ID 获取任务项
func (r *GormDriveRepository) GetItemByID(id uint) (*models.DriveItem, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.DriveItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemByProductNumber 根据订单号获取任务项
func (r *GormDriveRepository) GetItemByProductNumber(productNumber string) (*models.DriveItem, error) {
	productNumber = strings.TrimSpace(productNumber)
	if productNumber == "" {
		return nil, nil
	}
	var item models.DriveItem
	if err := r.db.Where("product_number = ?", productNumber).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetCurrentItem 获取会话当前任务项
func (r *GormDriveRepository) GetCurrentItem(sessionID uint) (*models.DriveItem, error) {
	if sessionID == 0 {
		return nil, nil
	}
	var item models.DriveItem
	if err := r.db.Where("session_id = ? AND user_status = ?", sessionID, constants.DriveItemStatusCurrent).
		Order("order_in_drive ASC").
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetNextPendingItem 获取会话中序号最小的待做任务项
func (r *GormDriveRepository) GetNextPendingItem(sessionID uint) (*models.DriveItem, error) {
	if sessionID == 0 {
		return nil, nil
	}
	var item models.DriveItem
	if err := r.db.Where("session_id = ? AND user_status = ?", sessionID, constants.DriveItemStatusPending).
		Order("order_in_drive ASC").
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListItemsBySession 获取会话全部任务项
func (r *GormDriveRepository) ListItemsBySession(sessionID uint) ([]models.DriveItem, error) {
	if sessionID == 0 {
		return []models.DriveItem{}, nil
	}
	var items []models.DriveItem
	if err := r.db.Where("session_id = ?", sessionID).
		Order("order_in_drive ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountItemsByStatus 按状态统计会话任务项
func (r *GormDriveRepository) CountItemsByStatus(sessionID uint, status string) (int64, error) {
	if sessionID == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.DriveItem{}).
		Where("session_id = ? AND user_status = ?", sessionID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
