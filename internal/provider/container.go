package provider

import (
	"github.com/tilafu/affiliate-drive/internal/authz"
	"github.com/tilafu/affiliate-drive/internal/cache"
	"github.com/tilafu/affiliate-drive/internal/config"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/metrics"
	"github.com/tilafu/affiliate-drive/internal/models"
	"github.com/tilafu/affiliate-drive/internal/queue"
	"github.com/tilafu/affiliate-drive/internal/repository"
	"github.com/tilafu/affiliate-drive/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config       *config.Config
	QueueClient  *queue.Client
	DriveMetrics *metrics.DriveMetrics

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	AccountRepo       repository.AccountRepository
	ProductRepo       repository.ProductRepository
	TierConfigRepo    repository.TierConfigRepository
	DriveRepo         repository.DriveRepository
	CommissionLogRepo repository.CommissionLogRepository
	DepositRepo       repository.DepositRepository
	NotificationRepo  repository.NotificationRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	UserAdminService    *service.UserAdminService
	ProductService      *service.ProductService
	TierService         *service.TierService
	LedgerService       *service.LedgerService
	CommissionService   *service.CommissionService
	DriveConfigService  *service.DriveConfigService
	DriveService        *service.DriveService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:       cfg,
		QueueClient:  queueClient,
		DriveMetrics: metrics.NewDriveMetrics(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AccountRepo = repository.NewAccountRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.TierConfigRepo = repository.NewTierConfigRepository(db)
	c.DriveRepo = repository.NewDriveRepository(db)
	c.CommissionLogRepo = repository.NewCommissionLogRepository(db)
	c.DepositRepo = repository.NewDepositRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	driveCfg := c.Config.Drive
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.AccountRepo, driveCfg.TrainingCapDefault)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo, c.AccountRepo, c.TierConfigRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.TierService = service.NewTierService(c.TierConfigRepo, c.UserRepo)
	c.LedgerService = service.NewLedgerService(c.AccountRepo, c.CommissionLogRepo)
	c.CommissionService = service.NewCommissionService(
		c.LedgerService,
		c.UserRepo,
		c.AccountRepo,
		c.CommissionLogRepo,
		driveCfg.UplineBonusPercent,
		driveCfg.TrainingCapDefault,
	)
	c.DriveConfigService = service.NewDriveConfigService(
		c.ProductRepo,
		c.TierConfigRepo,
		driveCfg.PriceBandLowRatio,
		driveCfg.PriceBandHighRatio,
		driveCfg.MinBalanceRequired,
	)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)
	c.DriveService = service.NewDriveService(
		c.DriveRepo,
		c.UserRepo,
		c.AccountRepo,
		c.ProductRepo,
		c.DepositRepo,
		c.LedgerService,
		c.CommissionService,
		c.DriveConfigService,
		c.NotificationService,
		c.QueueClient,
		c.DriveMetrics,
	)
}
