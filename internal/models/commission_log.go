package models

import "time"

// CommissionLog 佣金流水表（只追加，不更新不删除）
// reference_id 非空时唯一，作为结算幂等键。
type CommissionLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                   // 主键
	UserID           uint      `gorm:"not null;index" json:"user_id"`                          // 入账用户
	SourceUserID     *uint     `gorm:"index" json:"source_user_id"`                            // 佣金来源用户（下级返佣时有值）
	SourceActionID   *uint     `json:"source_action_id"`                                       // 来源动作（任务/管理操作）
	AccountType      string    `gorm:"not null;index" json:"account_type"`                     // 入账账户类型
	Direction        string    `gorm:"not null;default:'credit'" json:"direction"`             // 流水方向 credit/debit
	CommissionAmount Money     `gorm:"type:decimal(12,2);not null" json:"commission_amount"`   // 金额
	CommissionType   string    `gorm:"not null;index" json:"commission_type"`                  // 流水类型
	Description      string    `gorm:"default:''" json:"description"`                          // 备注
	ReferenceID      *string   `gorm:"uniqueIndex" json:"reference_id"`                        // 幂等参考号
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (CommissionLog) TableName() string {
	return "commission_logs"
}
