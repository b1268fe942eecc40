package models

import "time"

// TierQuantityConfig 等级做单配置表（每个等级一行）
type TierQuantityConfig struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                      // 主键
	TierName        string    `gorm:"uniqueIndex;not null" json:"tier_name"`                     // 等级名称
	QuantityLimit   int       `gorm:"not null;default:40" json:"quantity_limit"`                 // 每轮做单任务上限
	NumSingleTasks  int       `gorm:"not null;default:40" json:"num_single_tasks"`               // 单品任务数
	NumComboTasks   int       `gorm:"not null;default:0" json:"num_combo_tasks"`                 // 组合任务数
	MinPriceSingle  Money     `gorm:"type:decimal(12,2);not null;default:0" json:"min_price_single"` // 单品价格下限
	MaxPriceSingle  Money     `gorm:"type:decimal(12,2);not null;default:0" json:"max_price_single"` // 单品价格上限
	MinPriceCombo   Money     `gorm:"type:decimal(12,2);not null;default:0" json:"min_price_combo"`  // 组合价格下限
	MaxPriceCombo   Money     `gorm:"type:decimal(12,2);not null;default:0" json:"max_price_combo"`  // 组合价格上限
	CommissionRate  Money     `gorm:"type:decimal(6,2);not null;default:0" json:"commission_rate"`   // 结算佣金率（百分比）
	Description     string    `gorm:"default:''" json:"description"`                             // 配置说明
	IsActive        bool      `gorm:"not null" json:"is_active"`                                 // 是否启用（默认值由服务层设置）
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (TierQuantityConfig) TableName() string {
	return "tier_quantity_configs"
}
