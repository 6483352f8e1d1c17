package provider

import (
	"context"
	"time"

	"github.com/groupvial/internal/authz"
	"github.com/groupvial/internal/cache"
	"github.com/groupvial/internal/cart"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/events"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/queue"
	"github.com/groupvial/internal/realtime"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"
	"github.com/groupvial/internal/storage"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Publisher   events.Publisher
	Hub         realtime.Hub
	CartStore   cart.Store
	Store       storage.Store

	// Repositories
	UserRepo      repository.UserRepository
	ProductRepo   repository.ProductRepository
	BatchRepo     repository.BatchRepository
	RegionRepo    repository.RegionRepository
	OrderRepo     repository.OrderRepository
	SettingRepo   repository.SettingRepository
	DashboardRepo repository.DashboardRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	UserService      *service.UserService
	CaptchaService   *service.CaptchaService
	ImageService     *service.ImageService
	ProductService   *service.ProductService
	SettingService   *service.SettingService
	BatchService     *service.BatchService
	RegionService    *service.RegionService
	CartService      *service.CartService
	CheckoutService  *service.CheckoutService
	OrderService     *service.OrderService
	DashboardService *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	store, err := storage.New(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "driver", cfg.Storage.Driver, "error", err)
		panic(err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Publisher:   events.NewPublisher(&cfg.Kafka),
		Hub:         realtime.NewHub(),
		CartStore:   cart.NewStore(time.Duration(cfg.Order.CartTTLHours) * time.Hour),
		Store:       store,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// Close 释放外部连接
func (c *Container) Close() {
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warnw("provider_close_publisher_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.BatchRepo = repository.NewBatchRepository(db)
	c.RegionRepo = repository.NewRegionRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
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

	authService, err := service.NewAuthService(c.Config.Auth)
	if err != nil {
		logger.Errorw("provider_init_auth_failed", "mode", c.Config.Auth.Mode, "error", err)
		panic(err)
	}
	c.AuthService = authService

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.UserService = service.NewUserService(c.UserRepo, c.Config.Auth.BootstrapAdmins)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.ImageService = service.NewImageService(c.Store, c.Config.Storage)
	c.ProductService = service.NewProductService(c.ProductRepo, c.ImageService)
	c.BatchService = service.NewBatchService(c.BatchRepo, c.ProductRepo, c.RegionRepo, c.QueueClient, c.Hub)
	c.RegionService = service.NewRegionService(c.RegionRepo, c.BatchRepo, c.UserRepo, c.SettingService)
	c.CartService = service.NewCartService(c.CartStore, c.ProductRepo, c.BatchRepo, c.SettingService, c.Config.Order)
	c.CheckoutService = service.NewCheckoutService(
		c.BatchRepo,
		c.OrderRepo,
		c.ProductRepo,
		c.RegionRepo,
		c.SettingService,
		c.BatchService,
		c.CaptchaService,
		c.CartStore,
		c.QueueClient,
		c.Publisher,
		c.Config.Order,
		c.Config.Messaging,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.BatchRepo, c.RegionRepo, c.BatchService, c.QueueClient, c.Publisher)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.RegionRepo, c.OrderRepo, c.SettingService)
}
