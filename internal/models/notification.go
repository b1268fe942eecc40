package models

import "time"

// Notification 用户通知表（冻结/解冻/入账等事件，由队列异步落库）
type Notification struct {
	ID        uint       `gorm:"primarykey" json:"id"`                // 主键
	UserID    uint       `gorm:"not null;index" json:"user_id"`       // 接收用户
	Type      string     `gorm:"not null;index" json:"type"`          // 通知类型
	Title     string     `gorm:"not null" json:"title"`               // 标题
	Body      string     `gorm:"type:text" json:"body"`               // 内容
	ReadAt    *time.Time `json:"read_at"`                             // 已读时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`             // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
