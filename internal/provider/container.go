package provider

import (
	"github.com/nutri-next/internal/cache"
	"github.com/nutri-next/internal/config"
	"github.com/nutri-next/internal/logger"
	"github.com/nutri-next/internal/models"
	"github.com/nutri-next/internal/queue"
	"github.com/nutri-next/internal/repository"
	"github.com/nutri-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	ProductRepo     repository.ProductRepository
	VariantRepo     repository.VariantRepository
	FlavorRepo      repository.FlavorRepository
	WeightRepo      repository.WeightRepository
	OrderRepo       repository.OrderRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository

	// Services
	PricingService *service.PricingService
	ProductService *service.ProductService
	OrderService   *service.OrderService
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
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.FlavorRepo = repository.NewFlavorRepository(db)
	c.WeightRepo = repository.NewWeightRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
}

func (c *Container) initServices() {
	c.PricingService = service.NewPricingService(c.CouponRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariantRepo, c.FlavorRepo, c.WeightRepo, c.Config.Catalog.CacheTTLSeconds)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.VariantRepo, c.CouponRepo, c.CouponUsageRepo, c.PricingService, c.QueueClient, c.Config.Order.Currency, c.Config.Order.PaymentExpireMinutes)
}
