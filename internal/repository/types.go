package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	Tier          string
	UplinerID     uint
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	IsActive   *bool
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	OrderBy    string
	OnlyActive bool
}

// TierConfigListFilter 查询等级配置列表的过滤条件
type TierConfigListFilter struct {
	Page       int
	PageSize   int
	TierName   string
	OnlyActive bool
}

// DriveSessionListFilter 查询刷单会话列表的过滤条件
type DriveSessionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionLogListFilter 查询佣金流水列表的过滤条件
type CommissionLogListFilter struct {
	Page           int
	PageSize       int
	UserID         uint
	SourceUserID   uint
	AccountType    string
	Direction      string
	CommissionType string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// DepositListFilter 查询入金记录列表的过滤条件
type DepositListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	AdminID     uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	Type       string
	UnreadOnly bool
}
