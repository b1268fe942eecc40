package models

import "time"

// DriveItem 做单任务表（会话开始时按 order_in_drive 预生成）
type DriveItem struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                              // 主键
	SessionID     uint       `gorm:"not null;uniqueIndex:idx_drive_items_session_order" json:"session_id"` // 所属会话
	OrderInDrive  int        `gorm:"not null;uniqueIndex:idx_drive_items_session_order" json:"order_in_drive"` // 会话内序号（从 1 开始）
	TaskType      string     `gorm:"not null;default:'single'" json:"task_type"`                        // 任务类型 single/combo
	ProductID     uint       `gorm:"not null;index" json:"product_id"`                                  // 主商品
	ProductID2    *uint      `json:"product_id_2"`                                                      // 组合商品 2
	ProductID3    *uint      `json:"product_id_3"`                                                      // 组合商品 3
	ProductNumber string     `gorm:"uniqueIndex;not null" json:"product_number"`                        // 任务号（结算幂等参考号）
	UserStatus    string     `gorm:"not null;default:'PENDING';index" json:"user_status"`               // 任务状态
	CompletedAt   *time.Time `json:"completed_at"`                                                      // 完成时间
	CreatedAt     time.Time  `json:"created_at"`                                                        // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                                        // 更新时间

	// 关联
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 主商品信息
}

// TableName 指定表名
func (DriveItem) TableName() string {
	return "drive_items"
}
