package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（做单任务的商品目录）
type Product struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                              // 主键
	Name               string         `gorm:"not null;index" json:"name"`                                        // 商品名称
	Price              Money          `gorm:"type:decimal(12,2);not null;index" json:"price"`                    // 单价
	ImageURL           string         `gorm:"default:''" json:"image_url"`                                       // 商品图片
	Description        string         `gorm:"type:text" json:"description"`                                      // 商品描述
	MinBalanceRequired Money          `gorm:"type:decimal(12,2);not null;default:0" json:"min_balance_required"` // 最低余额门槛（0 表示不限制）
	IsActive           bool           `gorm:"not null;index" json:"is_active"`                                   // 是否上架（默认值由服务层设置，带 default 标签的零值不会写库）
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                                        // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
