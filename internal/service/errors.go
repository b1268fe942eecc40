package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("资源不存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("密码错误")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrUserDisabled       = errors.New("用户已被禁用")
	ErrEmailExists        = errors.New("邮箱已注册")
	ErrInvalidEmail       = errors.New("邮箱格式不合法")
	ErrReferralCodeBad    = errors.New("推荐码不存在")
	ErrProfileEmpty       = errors.New("没有需要更新的资料")
	ErrUserStatusInvalid  = errors.New("用户状态不合法")
)

// 账户与佣金错误
var (
	ErrAccountNotFound      = errors.New("资金账户不存在")
	ErrAccountInactive      = errors.New("资金账户已停用")
	ErrAccountCreateFailed  = errors.New("资金账户创建失败")
	ErrAccountUpdateFailed  = errors.New("资金账户更新失败")
	ErrInsufficientBalance  = errors.New("账户余额不足")
	ErrInvalidAmount        = errors.New("金额不合法")
	ErrLedgerWriteFailed    = errors.New("佣金流水写入失败")
	ErrLedgerReferenceEmpty = errors.New("流水参考号不能为空")
)

// 刷单会话错误
var (
	ErrSessionNotFound    = errors.New("刷单会话不存在")
	ErrSessionNotActive   = errors.New("刷单会话不在进行中")
	ErrSessionFrozen      = errors.New("刷单会话已冻结")
	ErrSessionNotFrozen   = errors.New("刷单会话未冻结")
	ErrOrderMismatch      = errors.New("提交的任务与当前任务不一致")
	ErrNoProductsInRange  = errors.New("价格区间内没有可用商品")
	ErrDriveMinBalance    = errors.New("主账户余额不足以开始刷单")
	ErrDriveItemCorrupted = errors.New("刷单任务数据异常")
)

// 商品错误
var (
	ErrProductNameRequired = errors.New("商品名称不能为空")
	ErrProductPriceInvalid = errors.New("商品价格不合法")
)

// 等级配置错误
var (
	ErrTierUnknown          = errors.New("未知的用户等级")
	ErrTierConfigExists     = errors.New("等级配置已存在")
	ErrTierConfigNotFound   = errors.New("等级配置不存在")
	ErrTierConfigInUse      = errors.New("等级配置仍被用户使用")
	ErrTierPriceBandInvalid = errors.New("等级价格区间不合法")
	ErrTierQuantityInvalid  = errors.New("等级任务数量不合法")
)
