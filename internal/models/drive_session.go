package models

import "time"

// DriveSession 做单会话表
// status 的状态流转由 service 层的状态机维护，completed 为终态。
type DriveSession struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                    // 主键
	SessionUUID        string     `gorm:"uniqueIndex;not null" json:"session_uuid"`                // 会话标识
	UserID             uint       `gorm:"not null;index" json:"user_id"`                           // 所属用户
	Status             string     `gorm:"not null;default:'active';index" json:"status"`           // 会话状态
	TasksRequired      int        `gorm:"not null;default:0" json:"tasks_required"`                // 本轮任务总数
	TasksCompleted     int        `gorm:"not null;default:0" json:"tasks_completed"`               // 已完成任务数
	CurrentItemID      *uint      `gorm:"index" json:"current_item_id"`                            // 当前任务
	FrozenAmountNeeded *Money     `gorm:"type:decimal(12,2)" json:"frozen_amount_needed"`          // 解冻所需金额（仅冻结时有值）
	StartingBalance    Money      `gorm:"type:decimal(12,2);not null;default:0" json:"starting_balance"` // 开始时余额快照
	CommissionEarned   Money      `gorm:"type:decimal(12,2);not null;default:0" json:"commission_earned"` // 本轮累计佣金
	StartedAt          time.Time  `gorm:"index" json:"started_at"`                                 // 开始时间
	CompletedAt        *time.Time `json:"completed_at"`                                            // 完成时间
	CreatedAt          time.Time  `json:"created_at"`                                              // 创建时间
	UpdatedAt          time.Time  `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (DriveSession) TableName() string {
	return "drive_sessions"
}
