package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/metrics"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/queue"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DriveService 刷单会话状态机
type DriveService struct {
	driveRepo     repository.DriveRepository
	userRepo      repository.UserRepository
	accountRepo   repository.AccountRepository
	productRepo   repository.ProductRepository
	depositRepo   repository.DepositRepository
	ledger        *LedgerService
	commission    *CommissionService
	driveConfig   *DriveConfigService
	notifications *NotificationService
	queueClient   *queue.Client
	driveMetrics  *metrics.DriveMetrics
	productNumber func() string
}

// DriveTaskProduct 任务项中的商品信息
type DriveTaskProduct struct {
	ID       uint         `json:"id"`
	Name     string       `json:"name"`
	Price    models.Money `json:"price"`
	ImageURL string       `json:"image_url"`
}

// DriveTask 下发给客户端的任务
type DriveTask struct {
	ItemID              uint               `json:"item_id"`
	OrderInDrive        int                `json:"order_in_drive"`
	TaskType            string             `json:"task_type"`
	ProductNumber       string             `json:"product_number"`
	Products            []DriveTaskProduct `json:"products"`
	TotalPrice          models.Money       `json:"total_price"`
	EstimatedCommission models.Money       `json:"estimated_commission"`
	TasksRequired       int                `json:"tasks_required"`
	TasksCompleted      int                `json:"tasks_completed"`
}

// StartDriveResult 开始刷单的结果
type StartDriveResult struct {
	Session *models.DriveSession
	Task    *DriveTask
	Resumed bool
}

// SettleOrderInput 结算任务输入
type SettleOrderInput struct {
	UserID        uint
	ItemID        uint
	ProductID     uint
	ProductNumber string
}

// SettleOrderResult 结算任务结果
type SettleOrderResult struct {
	Frozen             bool
	FrozenAmountNeeded decimal.Decimal
	Completed          bool
	Balance            decimal.Decimal
	Commission         decimal.Decimal
	Price              decimal.Decimal
	TaskType           string
	Session            *models.DriveSession
}

// DriveStatus 会话状态视图
type DriveStatus struct {
	Status             string
	Session            *models.DriveSession
	CurrentTask        *DriveTask
	FrozenAmountNeeded *models.Money
}

// NewDriveService 创建刷单服务
func NewDriveService(
	driveRepo repository.DriveRepository,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	productRepo repository.ProductRepository,
	depositRepo repository.DepositRepository,
	ledger *LedgerService,
	commission *CommissionService,
	driveConfig *DriveConfigService,
	notifications *NotificationService,
	queueClient *queue.Client,
	driveMetrics *metrics.DriveMetrics,
) *DriveService {
	generator, err := nanoid.Standard(16)
	if err != nil {
		generator = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:16] }
	}
	return &DriveService{
		driveRepo:     driveRepo,
		userRepo:      userRepo,
		accountRepo:   accountRepo,
		productRepo:   productRepo,
		depositRepo:   depositRepo,
		ledger:        ledger,
		commission:    commission,
		driveConfig:   driveConfig,
		notifications: notifications,
		queueClient:   queueClient,
		driveMetrics:  driveMetrics,
		productNumber: generator,
	}
}

// Start 开始刷单会话，已有未结束会话时幂等返回
func (s *DriveService) Start(userID uint) (*StartDriveResult, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	var result *StartDriveResult
	if err := s.driveRepo.Transaction(func(tx *gorm.DB) error {
		driveRepo := s.driveRepo.WithTx(tx)

		existing, err := driveRepo.GetActiveSessionByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if existing != nil {
			task, err := s.buildCurrentTask(driveRepo, existing)
			if err != nil {
				return err
			}
			result = &StartDriveResult{Session: existing, Task: task, Resumed: true}
			return nil
		}

		account, err := s.accountRepo.WithTx(tx).GetByUserAndTypeForUpdate(userID, constants.AccountTypeMain)
		if err != nil {
			return err
		}
		balance := decimal.Zero
		if account != nil {
			balance = account.Balance.Decimal.Round(2)
		}
		if !s.driveConfig.CanAffordDrive(balance) {
			return ErrDriveMinBalance
		}

		configuration, err := s.driveConfig.BuildDriveConfiguration(user.Tier, balance)
		if err != nil {
			return err
		}

		now := time.Now()
		session := &models.DriveSession{
			SessionUUID:      uuid.NewString(),
			UserID:           userID,
			Status:           constants.DriveSessionStatusActive,
			TasksRequired:    configuration.Quantity,
			TasksCompleted:   0,
			StartingBalance:  models.NewMoneyFromDecimal(balance),
			CommissionEarned: models.ZeroMoney(),
			StartedAt:        now,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := driveRepo.CreateSession(session); err != nil {
			return err
		}

		items := s.buildDriveItems(session, configuration, now)
		if err := driveRepo.CreateItems(items); err != nil {
			return err
		}

		first, err := driveRepo.GetCurrentItem(session.ID)
		if err != nil {
			return err
		}
		if first == nil {
			return ErrDriveItemCorrupted
		}
		session.CurrentItemID = &first.ID
		session.UpdatedAt = now
		if err := driveRepo.UpdateSession(session); err != nil {
			return err
		}

		task, err := s.buildTask(session, first)
		if err != nil {
			return err
		}
		result = &StartDriveResult{Session: session, Task: task}
		return nil
	}); err != nil {
		return nil, err
	}

	if !result.Resumed {
		s.driveMetrics.RecordSessionStarted(user.Tier)
		logger.Infow("drive_session_started",
			"user_id", userID,
			"session_uuid", result.Session.SessionUUID,
			"tasks_required", result.Session.TasksRequired,
		)
	}
	return result, nil
}

// GetOrder 获取当前任务；任务做完时返回 nil 任务并自动完成会话
func (s *DriveService) GetOrder(userID uint) (*DriveTask, bool, error) {
	if userID == 0 {
		return nil, false, ErrNotFound
	}

	var task *DriveTask
	var completed bool
	if err := s.driveRepo.Transaction(func(tx *gorm.DB) error {
		driveRepo := s.driveRepo.WithTx(tx)

		session, err := driveRepo.GetActiveSessionByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.Status == constants.DriveSessionStatusFrozen {
			return ErrSessionFrozen
		}
		if session.Status != constants.DriveSessionStatusActive {
			return ErrSessionNotActive
		}

		current, err := driveRepo.GetCurrentItem(session.ID)
		if err != nil {
			return err
		}
		if current == nil {
			// 没有剩余任务即视为完成
			if err := s.completeSession(driveRepo, session); err != nil {
				return err
			}
			completed = true
			return nil
		}

		task, err = s.buildTask(session, current)
		return err
	}); err != nil {
		return nil, false, err
	}
	return task, completed, nil
}

// SaveOrder 结算当前任务（扣款、发佣金、推进或冻结）
func (s *DriveService) SaveOrder(input SettleOrderInput) (*SettleOrderResult, error) {
	if input.UserID == 0 {
		return nil, ErrNotFound
	}
	// 至少带一个任务标识，空提交不允许结算当前任务
	if input.ItemID == 0 && input.ProductID == 0 && strings.TrimSpace(input.ProductNumber) == "" {
		return nil, ErrOrderMismatch
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	var result *SettleOrderResult
	if err := s.driveRepo.Transaction(func(tx *gorm.DB) error {
		driveRepo := s.driveRepo.WithTx(tx)

		session, err := driveRepo.GetActiveSessionByUserIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.Status == constants.DriveSessionStatusFrozen {
			return ErrSessionFrozen
		}
		if session.Status != constants.DriveSessionStatusActive {
			return ErrSessionNotActive
		}

		current, err := driveRepo.GetCurrentItem(session.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderMismatch
		}
		if input.ItemID != 0 && input.ItemID != current.ID {
			return ErrOrderMismatch
		}
		if input.ProductNumber != "" && !strings.EqualFold(strings.TrimSpace(input.ProductNumber), current.ProductNumber) {
			return ErrOrderMismatch
		}
		if input.ProductID != 0 && input.ProductID != current.ProductID {
			return ErrOrderMismatch
		}

		price, err := s.itemPrice(current)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.WithTx(tx).GetByUserAndTypeForUpdate(input.UserID, constants.AccountTypeMain)
		if err != nil {
			return err
		}
		balance := decimal.Zero
		if account != nil {
			balance = account.Balance.Decimal.Round(2)
		}

		now := time.Now()
		if balance.LessThan(price) {
			// 余额不足不扣款，会话进入冻结
			needed := price.Sub(balance).Round(2)
			session.Status = constants.DriveSessionStatusFrozen
			frozen := models.NewMoneyFromDecimal(needed)
			session.FrozenAmountNeeded = &frozen
			session.UpdatedAt = now
			if err := driveRepo.UpdateSession(session); err != nil {
				return err
			}
			result = &SettleOrderResult{
				Frozen:             true,
				FrozenAmountNeeded: needed,
				Balance:            balance,
				Session:            session,
			}
			return nil
		}

		rate := s.resolveSettlementRate(user.Tier, current.TaskType)

		debitReference := fmt.Sprintf("drive:item:%d:debit", current.ID)
		if _, _, err := s.ledger.DebitInTx(tx, LedgerEntryInput{
			UserID:         input.UserID,
			AccountType:    constants.AccountTypeMain,
			Amount:         models.NewMoneyFromDecimal(price),
			CommissionType: constants.CommissionTypeDirectDrive,
			SourceActionID: &current.ID,
			Reference:      debitReference,
			Description:    "刷单任务购买扣款",
		}); err != nil {
			return err
		}

		commission, err := s.commission.DirectDriveCommissionInTx(tx, input.UserID, current.ID, price, rate)
		if err != nil {
			return err
		}
		if _, err := s.commission.UplineCommissionInTx(tx, input.UserID, current.ID, commission); err != nil {
			return err
		}
		if _, err := s.commission.TrainingCommissionInTx(tx, input.UserID, current.ID, price, rate); err != nil {
			return err
		}
		if _, err := s.commission.CheckAndTransferTrainingCapInTx(tx, input.UserID); err != nil {
			return err
		}

		current.UserStatus = constants.DriveItemStatusCompleted
		current.CompletedAt = &now
		current.UpdatedAt = now
		if err := driveRepo.UpdateItem(current); err != nil {
			return err
		}

		session.TasksCompleted++
		session.CommissionEarned = models.NewMoneyFromDecimal(session.CommissionEarned.Decimal.Add(commission).Round(2))
		session.FrozenAmountNeeded = nil

		next, err := driveRepo.GetNextPendingItem(session.ID)
		if err != nil {
			return err
		}
		completed := false
		if next == nil {
			completed = true
			session.Status = constants.DriveSessionStatusCompleted
			session.CompletedAt = &now
			session.CurrentItemID = nil
		} else {
			next.UserStatus = constants.DriveItemStatusCurrent
			next.UpdatedAt = now
			if err := driveRepo.UpdateItem(next); err != nil {
				return err
			}
			session.CurrentItemID = &next.ID
		}
		session.UpdatedAt = now
		if err := driveRepo.UpdateSession(session); err != nil {
			return err
		}

		refreshed, err := s.accountRepo.WithTx(tx).GetByUserAndType(input.UserID, constants.AccountTypeMain)
		if err != nil {
			return err
		}
		newBalance := decimal.Zero
		if refreshed != nil {
			newBalance = refreshed.Balance.Decimal.Round(2)
		}

		result = &SettleOrderResult{
			Completed:  completed,
			Balance:    newBalance,
			Commission: commission,
			Price:      price,
			TaskType:   current.TaskType,
			Session:    session,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.recordSettlement(user, result)
	return result, nil
}

// Status 查询会话状态
func (s *DriveService) Status(userID uint) (*DriveStatus, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	session, err := s.driveRepo.GetActiveSessionByUserID(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		latest, _, err := s.driveRepo.ListSessions(repository.DriveSessionListFilter{
			UserID:   userID,
			Page:     1,
			PageSize: 1,
		})
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 && latest[0].Status == constants.DriveSessionStatusCompleted {
			completed := latest[0]
			return &DriveStatus{Status: constants.DriveStatusComplete, Session: &completed}, nil
		}
		return &DriveStatus{Status: constants.DriveStatusNoSession}, nil
	}

	switch session.Status {
	case constants.DriveSessionStatusFrozen:
		return &DriveStatus{
			Status:             constants.DriveStatusFrozen,
			Session:            session,
			FrozenAmountNeeded: session.FrozenAmountNeeded,
		}, nil
	case constants.DriveSessionStatusPendingReset:
		// 待重置会话对客户端等同于已完成
		return &DriveStatus{Status: constants.DriveStatusComplete, Session: session}, nil
	}

	current, err := s.driveRepo.GetCurrentItem(session.ID)
	if err != nil {
		return nil, err
	}
	status := &DriveStatus{Status: constants.DriveStatusActive, Session: session}
	if current != nil {
		task, err := s.buildTask(session, current)
		if err != nil {
			return nil, err
		}
		status.CurrentTask = task
	}
	return status, nil
}

// CheckUnfreeze 余额足够覆盖当前任务时解除冻结
func (s *DriveService) CheckUnfreeze(userID uint) (bool, error) {
	if userID == 0 {
		return false, ErrNotFound
	}

	unfrozen := false
	if err := s.driveRepo.Transaction(func(tx *gorm.DB) error {
		driveRepo := s.driveRepo.WithTx(tx)

		session, err := driveRepo.GetActiveSessionByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if session == nil || session.Status != constants.DriveSessionStatusFrozen {
			return nil
		}

		current, err := driveRepo.GetCurrentItem(session.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrDriveItemCorrupted
		}
		price, err := s.itemPrice(current)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.WithTx(tx).GetByUserAndTypeForUpdate(userID, constants.AccountTypeMain)
		if err != nil {
			return err
		}
		if account == nil || account.Balance.Decimal.LessThan(price) {
			return nil
		}

		session.Status = constants.DriveSessionStatusActive
		session.FrozenAmountNeeded = nil
		session.UpdatedAt = time.Now()
		if err := driveRepo.UpdateSession(session); err != nil {
			return err
		}
		unfrozen = true
		return nil
	}); err != nil {
		return false, err
	}

	if unfrozen {
		logger.Infow("drive_session_unfrozen", "user_id", userID, "trigger", "balance_recheck")
		s.notify(userID, constants.NotificationTypeDriveUnfrozen, "刷单已恢复", "您的刷单会话已解除冻结，可以继续完成任务。")
	}
	return unfrozen, nil
}

// AdminUnfreeze 管理员强制解除冻结
func (s *DriveService) AdminUnfreeze(adminID, userID uint) error {
	if userID == 0 {
		return ErrNotFound
	}

	if err := s.driveRepo.Transaction(func(tx *gorm.DB) error {
		driveRepo := s.driveRepo.WithTx(tx)

		session, err := driveRepo.GetActiveSessionByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.Status != constants.DriveSessionStatusFrozen {
			return ErrSessionNotFrozen
		}

		session.Status = constants.DriveSessionStatusActive
		session.FrozenAmountNeeded = nil
		session.UpdatedAt = time.Now()
		return driveRepo.UpdateSession(session)
	}); err != nil {
		return err
	}

	logger.Infow("drive_session_unfrozen", "user_id", userID, "admin_id", adminID, "trigger", "admin")
	s.notify(userID, constants.NotificationTypeDriveUnfrozen, "刷单已恢复", "管理员已为您解除刷单冻结。")
	return nil
}

// AdminReset 管理员强制结束用户当前会话
func (s *DriveService) AdminReset(adminID, userID uint) error {
	if userID == 0 {
		return ErrNotFound
	}

	if err := s.driveRepo.Transaction(func(tx *gorm.DB) error {
		driveRepo := s.driveRepo.WithTx(tx)

		session, err := driveRepo.GetActiveSessionByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}

		now := time.Now()
		session.Status = constants.DriveSessionStatusCompleted
		session.CompletedAt = &now
		session.CurrentItemID = nil
		session.FrozenAmountNeeded = nil
		session.UpdatedAt = now
		if err := driveRepo.UpdateSession(session); err != nil {
			return err
		}

		reference := fmt.Sprintf("admin:%d:reset:session:%d", adminID, session.ID)
		log := &models.CommissionLog{
			UserID:           userID,
			AccountType:      constants.AccountTypeMain,
			Direction:        constants.LedgerDirectionCredit,
			CommissionAmount: models.ZeroMoney(),
			CommissionType:   constants.CommissionTypeAdminAction,
			Description:      "管理员重置刷单会话",
			ReferenceID:      &reference,
			CreatedAt:        now,
		}
		return s.ledger.logRepo.WithTx(tx).Create(log)
	}); err != nil {
		return err
	}

	s.driveMetrics.RecordSessionReset("admin")
	logger.Warnw("drive_session_reset", "user_id", userID, "admin_id", adminID)
	return nil
}

// AdminDeposit 管理员入金到主账户并触发解冻复查
func (s *DriveService) AdminDeposit(adminID, userID uint, amount models.Money, description string) (*models.Account, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	value := amount.Decimal.Round(2)
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	reference := fmt.Sprintf("deposit:admin:%d:user:%d:%d", adminID, userID, now.UnixNano())
	var accountResult *models.Account
	if err := s.accountRepo.Transaction(func(tx *gorm.DB) error {
		account, _, err := s.ledger.CreditInTx(tx, LedgerEntryInput{
			UserID:         userID,
			AccountType:    constants.AccountTypeMain,
			Amount:         models.NewMoneyFromDecimal(value),
			CommissionType: constants.CommissionTypeAdminDeposit,
			Reference:      reference,
			Description:    cleanLedgerDescription(description, constants.LedgerDirectionCredit),
		})
		if err != nil {
			return err
		}
		deposit := &models.Deposit{
			UserID:      userID,
			AdminID:     adminID,
			Amount:      models.NewMoneyFromDecimal(value),
			Description: strings.TrimSpace(description),
			CreatedAt:   now,
		}
		if err := s.depositRepo.WithTx(tx).Create(deposit); err != nil {
			return err
		}
		accountResult = account
		return nil
	}); err != nil {
		return nil, err
	}

	amountFloat, _ := value.Float64()
	s.driveMetrics.RecordAdminDeposit(amountFloat)
	logger.Infow("admin_deposit_applied",
		"user_id", userID,
		"admin_id", adminID,
		"amount", value.StringFixed(2),
	)
	s.notify(userID, constants.NotificationTypeAdminDeposit, "账户入金", "管理员已为您的主账户入金 "+value.StringFixed(2)+"。")

	if s.queueClient.Enabled() {
		_ = s.queueClient.EnqueueDriveUnfreezeRecheck(queue.DriveUnfreezeRecheckPayload{UserID: userID}, 0)
	} else if _, err := s.CheckUnfreeze(userID); err != nil {
		logger.Warnw("unfreeze_recheck_failed", "user_id", userID, "error", err)
	}
	return accountResult, nil
}

// ListSessions 管理端查询会话
func (s *DriveService) ListSessions(filter repository.DriveSessionListFilter) ([]models.DriveSession, int64, error) {
	return s.driveRepo.ListSessions(filter)
}

// ListSessionItems 管理端查询会话任务项
func (s *DriveService) ListSessionItems(sessionID uint) ([]models.DriveItem, error) {
	return s.driveRepo.ListItemsBySession(sessionID)
}

func (s *DriveService) buildDriveItems(session *models.DriveSession, configuration *DriveConfiguration, now time.Time) []models.DriveItem {
	comboCount := 0
	if configuration.TierConfig != nil && configuration.TierConfig.NumComboTasks > 0 {
		comboCount = configuration.TierConfig.NumComboTasks
	}
	// 带内商品不足时循环取用，任务数始终等于等级配额
	total := configuration.Quantity
	pool := len(configuration.Products)
	items := make([]models.DriveItem, 0, total)
	for i := 0; i < total; i++ {
		product := configuration.Products[i%pool]
		item := models.DriveItem{
			SessionID:     session.ID,
			OrderInDrive:  i + 1,
			TaskType:      constants.DriveTaskTypeSingle,
			ProductID:     product.ID,
			ProductNumber: "DRV-" + s.productNumber(),
			UserStatus:    constants.DriveItemStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		// 组合任务排在末尾，第二件商品从列表循环取用
		if comboCount > 0 && i >= total-comboCount && pool > 1 {
			item.TaskType = constants.DriveTaskTypeCombo
			second := configuration.Products[(i+1)%pool].ID
			item.ProductID2 = &second
		}
		if i == 0 {
			item.UserStatus = constants.DriveItemStatusCurrent
		}
		items = append(items, item)
	}
	return items
}

func (s *DriveService) buildCurrentTask(driveRepo *repository.GormDriveRepository, session *models.DriveSession) (*DriveTask, error) {
	current, err := driveRepo.GetCurrentItem(session.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	return s.buildTask(session, current)
}

func (s *DriveService) buildTask(session *models.DriveSession, item *models.DriveItem) (*DriveTask, error) {
	ids := []uint{item.ProductID}
	if item.ProductID2 != nil && *item.ProductID2 != 0 {
		ids = append(ids, *item.ProductID2)
	}
	if item.ProductID3 != nil && *item.ProductID3 != 0 {
		ids = append(ids, *item.ProductID3)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrDriveItemCorrupted
	}

	byID := make(map[uint]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	taskProducts := make([]DriveTaskProduct, 0, len(ids))
	total := decimal.Zero
	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			return nil, ErrDriveItemCorrupted
		}
		taskProducts = append(taskProducts, DriveTaskProduct{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			ImageURL: product.ImageURL,
		})
		total = total.Add(product.Price.Decimal)
	}
	total = total.Round(2)

	user, err := s.userRepo.GetByID(session.UserID)
	if err != nil {
		return nil, err
	}
	tier := constants.TierBronze
	if user != nil {
		tier = user.Tier
	}
	rate := s.resolveSettlementRate(tier, item.TaskType)
	estimated := total.Mul(rate).Round(2)

	return &DriveTask{
		ItemID:              item.ID,
		OrderInDrive:        item.OrderInDrive,
		TaskType:            item.TaskType,
		ProductNumber:       item.ProductNumber,
		Products:            taskProducts,
		TotalPrice:          models.NewMoneyFromDecimal(total),
		EstimatedCommission: models.NewMoneyFromDecimal(estimated),
		TasksRequired:       session.TasksRequired,
		TasksCompleted:      session.TasksCompleted,
	}, nil
}

func (s *DriveService) itemPrice(item *models.DriveItem) (decimal.Decimal, error) {
	ids := []uint{item.ProductID}
	if item.ProductID2 != nil && *item.ProductID2 != 0 {
		ids = append(ids, *item.ProductID2)
	}
	if item.ProductID3 != nil && *item.ProductID3 != 0 {
		ids = append(ids, *item.ProductID3)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return decimal.Zero, err
	}
	if len(products) != len(ids) {
		return decimal.Zero, ErrDriveItemCorrupted
	}
	total := decimal.Zero
	for _, product := range products {
		total = total.Add(product.Price.Decimal)
	}
	return total.Round(2), nil
}

func (s *DriveService) resolveSettlementRate(tier, taskType string) decimal.Decimal {
	var tierConfig *models.TierQuantityConfig
	if s.driveConfig != nil && s.driveConfig.tierRepo != nil {
		config, err := s.driveConfig.tierRepo.GetByTierName(tier)
		if err == nil && config != nil && config.IsActive {
			tierConfig = config
		}
	}
	return s.driveConfig.ResolveCommissionRate(tierConfig, tier, taskType)
}

func (s *DriveService) completeSession(driveRepo *repository.GormDriveRepository, session *models.DriveSession) error {
	now := time.Now()
	session.Status = constants.DriveSessionStatusCompleted
	session.CompletedAt = &now
	session.CurrentItemID = nil
	session.UpdatedAt = now
	if err := driveRepo.UpdateSession(session); err != nil {
		return err
	}
	logger.Infow("drive_session_completed",
		"user_id", session.UserID,
		"session_uuid", session.SessionUUID,
		"tasks_completed", session.TasksCompleted,
	)
	s.notify(session.UserID, constants.NotificationTypeDriveComplete, "刷单完成", "本轮刷单任务已全部完成。")
	return nil
}

func (s *DriveService) recordSettlement(user *models.User, result *SettleOrderResult) {
	if result == nil {
		return
	}
	if result.Frozen {
		s.driveMetrics.RecordSessionFrozen(user.Tier)
		logger.Warnw("drive_session_frozen",
			"user_id", user.ID,
			"frozen_amount_needed", result.FrozenAmountNeeded.StringFixed(2),
		)
		s.notify(user.ID, constants.NotificationTypeDriveFrozen, "刷单已冻结",
			"余额不足以完成当前任务，还需 "+result.FrozenAmountNeeded.StringFixed(2)+"。")
		return
	}

	priceFloat, _ := result.Price.Float64()
	s.driveMetrics.RecordSettlement(user.Tier, result.TaskType, priceFloat)
	commissionFloat, _ := result.Commission.Float64()
	s.driveMetrics.RecordCommissionPaid(constants.CommissionTypeDirectDrive, commissionFloat)
	if result.Completed {
		s.driveMetrics.RecordSessionCompleted(user.Tier)
		s.notify(user.ID, constants.NotificationTypeDriveComplete, "刷单完成", "本轮刷单任务已全部完成。")
	}
}

// notify 投递刷单状态通知，队列不可用时由 Dispatch 退化为同步落库
func (s *DriveService) notify(userID uint, notificationType, title, body string) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Dispatch(userID, notificationType, title, body); err != nil {
		logger.Warnw("notification_dispatch_failed", "user_id", userID, "type", notificationType, "error", err)
	}
}
