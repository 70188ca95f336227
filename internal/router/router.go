package router

import (
	"fmt"
	"strings"

	"github.com/nutri-next/internal/cache"
	"github.com/nutri-next/internal/config"
	adminhandlers "github.com/nutri-next/internal/http/handlers/admin"
	publichandlers "github.com/nutri-next/internal/http/handlers/public"
	"github.com/nutri-next/internal/logger"
	"github.com/nutri-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.Z()
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "nn"
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.CheckoutRateLimit.BlockSeconds,
		Message:       "too many checkout attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
			public.GET("/products/:slug/variants", publicHandler.GetProductVariants)
			public.GET("/products/:slug/selection", publicHandler.GetProductSelection)
		}

		// 用户接口（需鉴权）
		payment := apiV1.Group("/payment")
		payment.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			payment.POST("/orders/preview", publicHandler.PreviewOrder)
			payment.POST("/orders", RateLimitMiddleware(redisClient, checkoutRule, KeyByUserAndIP), publicHandler.CreateOrder)
			payment.GET("/orders", publicHandler.ListOrders)
			payment.GET("/orders/:id", publicHandler.GetOrder)
			payment.POST("/orders/:id/cancel", publicHandler.CancelOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			// 订单管理
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.GET("/orders/:id/status", adminHandler.AdminGetOrderStatus)
			admin.PUT("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
			admin.POST("/orders/:id/tracking/updates", adminHandler.AdminAppendTrackingUpdate)

			// 目录选项维护
			admin.GET("/flavors", adminHandler.AdminListFlavors)
			admin.DELETE("/flavors/:id", adminHandler.AdminDeleteFlavor)
			admin.GET("/weights", adminHandler.AdminListWeights)
			admin.DELETE("/weights/:id", adminHandler.AdminDeleteWeight)
			admin.DELETE("/products/:slug/cache", adminHandler.AdminInvalidateProductCache)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
