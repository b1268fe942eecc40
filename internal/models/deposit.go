package models

import "time"

// Deposit 管理员入账记录表
type Deposit struct {
	ID          uint      `gorm:"primarykey" json:"id"`                         // 主键
	UserID      uint      `gorm:"not null;index" json:"user_id"`                // 入账用户
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`               // 操作管理员
	Amount      Money     `gorm:"type:decimal(12,2);not null" json:"amount"`    // 入账金额
	Description string    `gorm:"default:''" json:"description"`                // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                      // 创建时间
}

// TableName 指定表名
func (Deposit) TableName() string {
	return "deposits"
}
