package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/groupvial/internal/authz"
	"github.com/groupvial/internal/cache"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	adminhandlers "github.com/groupvial/internal/http/handlers/admin"
	hosthandlers "github.com/groupvial/internal/http/handlers/host"
	publichandlers "github.com/groupvial/internal/http/handlers/public"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/metrics"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/团长/后台分组）
	publicHandler := publichandlers.New(c)
	hostHandler := hosthandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "gv"
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
	}
	guestCheckoutLimit := RateLimitMiddleware(redisClient, checkoutRule, KeyByIPAndJSONField("contact_handle"))
	userCheckoutLimit := RateLimitMiddleware(redisClient, checkoutRule, KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
	}

	// 静态文件服务（本地存储的商品图片）
	if cfg.Storage.Driver != constants.StorageDriverS3 {
		r.Static(cfg.Storage.PublicBase, cfg.Storage.LocalDir)
	}

	authMiddleware := AuthMiddleware(c.AuthService.ValidateToken, c.UserService)
	roleMiddleware := RoleMiddleware(c.AuthzService)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
			public.GET("/batches", publicHandler.GetBatches)
			public.GET("/batches/:id", publicHandler.GetBatch)
			public.GET("/batches/:id/stream", publicHandler.StreamBatchProgress)
			public.GET("/regions", publicHandler.GetRegions)
			public.GET("/regions/:slug", publicHandler.GetRegionBySlug)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)

			// 购物车（匿名，按 ID 访问）
			public.POST("/carts", publicHandler.CreateCart)
			public.GET("/carts/:id", publicHandler.GetCart)
			public.DELETE("/carts/:id", publicHandler.DeleteCart)
			public.POST("/carts/:id/items", publicHandler.AddCartItem)
			public.DELETE("/carts/:id/items", publicHandler.ClearCart)
			public.PUT("/carts/:id/items/:key", publicHandler.UpdateCartItem)
			public.DELETE("/carts/:id/items/:key", publicHandler.RemoveCartItem)

			// 游客下单与查单
			public.POST("/checkout", guestCheckoutLimit, publicHandler.GuestCheckout)
			public.GET("/orders/:code", publicHandler.GetGuestOrder)
		}

		// 顾客接口（需鉴权）
		user := apiV1.Group("")
		user.Use(authMiddleware, roleMiddleware)
		{
			user.GET("/me", publicHandler.GetMe)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.GET("/me/dashboard", publicHandler.GetMyDashboard)
			user.POST("/checkout", userCheckoutLimit, publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:code", publicHandler.GetMyOrder)
			user.POST("/orders/:code/cancel", publicHandler.CancelMyOrder)
		}

		// 区域团长接口
		host := apiV1.Group("/host")
		host.Use(authMiddleware, roleMiddleware)
		{
			host.GET("/dashboard/overview", hostHandler.GetDashboard)
			host.GET("/regions", hostHandler.ListMyRegions)

			host.GET("/batches", hostHandler.ListBatches)
			host.POST("/batches", hostHandler.CreateBatch)
			host.GET("/batches/:id", hostHandler.GetBatch)
			host.PUT("/batches/:id", hostHandler.UpdateBatch)
			host.POST("/batches/:id/products", hostHandler.AddBatchProduct)
			host.POST("/batches/:id/status", hostHandler.TransitionBatch)
			host.PUT("/memberships/:id", hostHandler.UpdateBatchProduct)
			host.DELETE("/memberships/:id", hostHandler.RemoveBatchProduct)

			host.GET("/orders", hostHandler.ListOrders)
			host.GET("/orders/:id", hostHandler.GetOrder)
			host.PATCH("/orders/:id/status", hostHandler.UpdateOrderStatus)
			host.PATCH("/orders/:id/payment-status", hostHandler.UpdatePaymentStatus)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(authMiddleware, roleMiddleware)
		{
			// 仪表盘
			admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)

			// 商品管理
			admin.GET("/products", adminHandler.GetAdminProducts)
			admin.GET("/products/:id", adminHandler.GetAdminProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)

			// 文件上传
			admin.POST("/upload", adminHandler.UploadFile)

			// 批次管理
			admin.GET("/batches", adminHandler.ListBatches)
			admin.POST("/batches", adminHandler.CreateBatch)
			admin.GET("/batches/:id", adminHandler.GetBatch)
			admin.PUT("/batches/:id", adminHandler.UpdateBatch)
			admin.POST("/batches/:id/products", adminHandler.AddBatchProduct)
			admin.POST("/batches/:id/status", adminHandler.TransitionBatch)
			admin.PUT("/memberships/:id", adminHandler.UpdateBatchProduct)
			admin.DELETE("/memberships/:id", adminHandler.RemoveBatchProduct)

			// 区域管理
			admin.GET("/regions", adminHandler.ListRegions)
			admin.POST("/regions", adminHandler.CreateRegion)
			admin.PUT("/regions/:id", adminHandler.UpdateRegion)
			admin.PUT("/regions/:id/host", adminHandler.AssignRegionHost)
			admin.DELETE("/regions/:id", adminHandler.DeleteRegion)

			// 订单管理
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.PATCH("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
			admin.PATCH("/orders/:id/payment-status", adminHandler.AdminUpdatePaymentStatus)

			// 用户管理
			admin.GET("/users", adminHandler.GetAdminUsers)
			admin.GET("/users/:id", adminHandler.GetAdminUser)
			admin.PUT("/users/:id/role", adminHandler.SetUserRole)

			// 设置管理
			admin.GET("/settings/:key", adminHandler.GetSetting)
			admin.PUT("/settings/:key", adminHandler.UpdateSetting)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/healthz", healthCheck)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	return r
}

func healthCheck(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
	code := http.StatusOK
	if models.DB == nil {
		status["database"] = "uninitialized"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["database"] = "unreachable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if client := cache.Client(); client != nil {
		status["redis"] = "ok"
		if err := client.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "unreachable"
		}
	}
	c.JSON(code, status)
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") && !strings.HasPrefix(item.Path, "/api/v1/host/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" && segments[0] != "host" {
		return segments[0]
	}
	return segments[0] + "." + segments[1]
}
