package models

import "time"

// Account 用户账户表（每个用户一个 main 账户和一个 training 账户）
type Account struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                        // 主键
	UserID     uint      `gorm:"not null;uniqueIndex:idx_accounts_user_type" json:"user_id"`  // 所属用户
	Type       string    `gorm:"not null;uniqueIndex:idx_accounts_user_type" json:"type"`     // 账户类型 main/training
	Balance    Money     `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`        // 可用余额
	Frozen     Money     `gorm:"type:decimal(12,2);not null;default:0" json:"frozen"`         // 冻结金额
	Commission Money     `gorm:"type:decimal(12,2);not null;default:0" json:"commission"`     // 累计佣金
	Cap        Money     `gorm:"type:decimal(12,2);not null;default:0" json:"cap"`            // 培训账户上限（main 账户为 0）
	IsActive   bool      `gorm:"not null" json:"is_active"`                                   // 是否启用（创建时显式赋值）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}
