package core

import (
	"net/http"
	"time"

	"github.com/anoixa/photo-bed/api/common"
	handlerDashboard "github.com/anoixa/photo-bed/api/handler/dashboard"
	handlerPhotos "github.com/anoixa/photo-bed/api/handler/photos"
	handlerUsers "github.com/anoixa/photo-bed/api/handler/users"
	"github.com/anoixa/photo-bed/api/middleware"
	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/dashboard"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/anoixa/photo-bed/internal/services/users"
	"github.com/anoixa/photo-bed/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// maxConcurrentRequests 全局并发上限，避免大量上传导致内存过载
const maxConcurrentRequests = 100

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config        *config.Config
	Database      database.Provider
	Storage       storage.Provider
	CacheProvider cache.Provider
	TokenParser   middleware.TokenParser
	UserLookup    middleware.UserLookup
	PhotoService  *photo.Service
	UserService   *users.Service
	Dashboard     *dashboard.Service
}

// NewRouter 创建 gin 引擎并注册全部路由，返回的 cleanup 用于停止限流器的后台清理
func NewRouter(deps *RouterDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	_ = router.SetTrustedProxies(nil)

	router.MaxMultipartMemory = cfg.UploadMaxBytes()

	router.Use(middleware.NewConcurrencyLimiter(maxConcurrentRequests).Middleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	mediaRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitMediaRPS, cfg.RateLimitMediaBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		mediaRateLimiter.StopCleanup()
	}

	registerBasicRoutes(router, deps)

	// 公共媒体访问
	if deps.Storage != nil {
		media := &mediaHandler{provider: deps.Storage}
		mediaGroup := router.Group("/media")
		mediaGroup.Use(mediaRateLimiter.Middleware())
		{
			mediaGroup.GET("/*key", media.serve)  // GET /media/{key}
			mediaGroup.HEAD("/*key", media.serve) // HEAD /media/{key}
		}
	}

	registerAPIRoutes(router, deps, apiRateLimiter)
	return router, cleanup
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	origins := cfg.CorsAllowOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := withHealthTimeout(c.Request.Context())
		defer cancel()

		checks := map[string]string{
			"database": checkDatabaseHealth(ctx, deps.Database),
			"cache":    checkCacheHealth(ctx, deps.CacheProvider),
			"storage":  checkStorageHealth(ctx, deps.Storage),
		}
		status, httpStatus := "ok", http.StatusOK
		if !healthy(checks) {
			status, httpStatus = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":  status,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks":  checks,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies, limiter *middleware.IPRateLimiter) {
	apiGroup := router.Group("/api")
	apiGroup.Use(func(c *gin.Context) { // 所有API禁止缓存
		c.Header("Cache-Control", "no-store")
		c.Next()
	})

	v1 := apiGroup.Group("/v1")
	v1.Use(limiter.Middleware())
	v1.Use(middleware.JWTAuth(deps.TokenParser, deps.UserLookup))
	{
		photoHandler := handlerPhotos.NewHandler(deps.PhotoService, deps.Config.UploadMaxBytes())
		photoHandler.RegisterRoutes(v1.Group("/photos"))

		staff := middleware.RequireRole(models.RoleAdmin, models.RoleModerator)

		usersGroup := v1.Group("/users")
		usersGroup.Use(staff)
		handlerUsers.NewHandler(deps.UserService).RegisterRoutes(usersGroup)

		if deps.Dashboard != nil {
			dashboardGroup := v1.Group("/dashboard")
			dashboardGroup.Use(staff)
			handlerDashboard.NewHandler(deps.Dashboard).RegisterRoutes(dashboardGroup)
		}
	}
}
