package constants

// 用户等级常量
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// SupportedTiers 支持的用户等级顺序（由低到高）
var SupportedTiers = []string{TierBronze, TierSilver, TierGold, TierPlatinum}

// 账户类型常量
const (
	AccountTypeMain     = "main"
	AccountTypeTraining = "training"
)

// 做单会话状态常量
const (
	DriveSessionStatusActive       = "active"
	DriveSessionStatusFrozen       = "frozen"
	DriveSessionStatusPendingReset = "pending_reset"
	DriveSessionStatusCompleted    = "completed"
)

// 做单任务类型常量
const (
	DriveTaskTypeSingle = "single"
	DriveTaskTypeCombo  = "combo"
)

// 做单任务状态常量
const (
	DriveItemStatusPending   = "PENDING"
	DriveItemStatusCurrent   = "CURRENT"
	DriveItemStatusCompleted = "COMPLETED"
)

// 做单状态查询结果常量
const (
	DriveStatusActive    = "active"
	DriveStatusFrozen    = "frozen"
	DriveStatusComplete  = "complete"
	DriveStatusNoSession = "no_session"
)

// 佣金类型常量
const (
	CommissionTypeDirectDrive     = "direct_drive"
	CommissionTypeUplineBonus     = "upline_bonus"
	CommissionTypeTrainingBonus   = "training_bonus"
	CommissionTypeTrainingCap     = "training_cap_transfer"
	CommissionTypeAdminDeposit    = "admin_deposit"
	CommissionTypeAdminWithdrawal = "admin_withdrawal"
	CommissionTypeAdminAction     = "admin_action"
)

// 账务流水方向常量
const (
	LedgerDirectionCredit = "credit"
	LedgerDirectionDebit  = "debit"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知类型常量
const (
	NotificationTypeDriveFrozen   = "drive_frozen"
	NotificationTypeDriveUnfrozen = "drive_unfrozen"
	NotificationTypeDriveComplete = "drive_complete"
	NotificationTypeAdminDeposit  = "admin_deposit"
	NotificationTypeAdminMessage  = "admin_message"
)

// 队列常量
const (
	QueueDefault             = "default"
	TaskNotificationDispatch = "notification:dispatch"
	TaskDriveUnfreezeRecheck = "drive:unfreeze_recheck"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ad"
)
