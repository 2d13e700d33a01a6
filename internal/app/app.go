package app

import (
	"context"
	"fmt"

	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/repo/accounts"
	"github.com/anoixa/photo-bed/database/repo/stats"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/dashboard"
	"github.com/anoixa/photo-bed/internal/media"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/anoixa/photo-bed/internal/services/users"
	"github.com/anoixa/photo-bed/internal/worker"
	"github.com/anoixa/photo-bed/storage"
	log "github.com/sirupsen/logrus"
)

// 首次启动时创建的默认管理员
const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@localhost"
)

// Container 依赖注入容器，管理所有服务的生命周期
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	storage         storage.Provider
	cacheProvider   cache.Provider
	pool            *worker.Pool
	vipsStarted     bool

	mediaStore   *media.StorageStore
	jwtService   *auth.JWTService
	photoService *photo.Service
	userService  *users.Service
	dashboard    *dashboard.Service
	accountsRepo *accounts.Repository
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// InitDatabase 只初始化数据库，migrate 与 token 命令使用
func (c *Container) InitDatabase() error {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory
	c.accountsRepo = accounts.NewRepository(factory.GetProvider().DB())
	return nil
}

// Init 初始化全部服务
func (c *Container) Init() error {
	log.Info("Initializing DI container...")

	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.databaseFactory.AutoMigrate(); err != nil {
		return err
	}
	if err := c.ensureAdmin(); err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(c.config.JWTSecret, c.config.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt service: %w", err)
	}
	c.jwtService = jwtService

	provider, err := storage.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}
	c.storage = provider

	media.StartupVips()
	c.vipsStarted = true
	transformer := media.NewVipsTransformer(worker.GetGlobalSemaphore())
	c.mediaStore = media.NewStorageStore(provider, transformer, c.config.MediaBaseURL())

	cacheProvider, err := cache.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.cacheProvider = cacheProvider

	worker.InitGlobalPool(c.config.WorkerCount, 1000)
	c.pool = worker.GetGlobalPool()

	db := c.databaseFactory.GetProvider()
	c.photoService = photo.NewService(
		db,
		c.mediaStore,
		media.NewQRCodeRenderer(),
		cache.NewHelperFromConfig(cacheProvider, c.config),
		c.pool,
		photo.ConfigFromApp(c.config),
	)
	c.userService = users.NewService(db.DB())
	c.dashboard = dashboard.NewService(stats.NewRepository(db.DB()), cacheProvider)

	log.WithFields(log.Fields{
		"storage":  provider.Name(),
		"media":    c.config.MediaBaseURL(),
		"database": db.Name(),
	}).Info("DI container initialized successfully")
	return nil
}

func (c *Container) ensureAdmin() error {
	user, created, err := c.accountsRepo.EnsureAdminUser(context.Background(), defaultAdminUsername, defaultAdminEmail)
	if err != nil {
		return err
	}
	if created {
		log.WithField("user_id", user.ID).Warn("Default admin user created, mint a token with `photo-bed token`")
	}
	return nil
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDatabaseProvider 获取数据库提供者
func (c *Container) GetDatabaseProvider() database.Provider {
	if c.databaseFactory == nil {
		return nil
	}
	return c.databaseFactory.GetProvider()
}

// GetDatabaseFactory 获取数据库工厂
func (c *Container) GetDatabaseFactory() *database.Factory {
	return c.databaseFactory
}

// GetStorage 获取媒体存储提供者
func (c *Container) GetStorage() storage.Provider {
	return c.storage
}

// GetCacheProvider 获取缓存提供者，未启用缓存时为 nil
func (c *Container) GetCacheProvider() cache.Provider {
	return c.cacheProvider
}

// GetJWTService 获取 JWT 服务
func (c *Container) GetJWTService() *auth.JWTService {
	return c.jwtService
}

// GetPhotoService 获取照片服务
func (c *Container) GetPhotoService() *photo.Service {
	return c.photoService
}

// GetUserService 获取用户管理服务
func (c *Container) GetUserService() *users.Service {
	return c.userService
}

// GetDashboardService 获取统计服务
func (c *Container) GetDashboardService() *dashboard.Service {
	return c.dashboard
}

// GetAccountsRepo 获取用户仓库
func (c *Container) GetAccountsRepo() *accounts.Repository {
	return c.accountsRepo
}

// Close 关闭所有服务
func (c *Container) Close() error {
	log.Info("Closing DI container...")

	if c.pool != nil {
		worker.StopGlobalPool()
	}
	if c.vipsStarted {
		media.ShutdownVips()
	}
	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil {
			log.WithError(err).Warn("Error closing cache provider")
		}
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			log.WithError(err).Warn("Error closing database factory")
		}
	}

	log.Info("DI container closed")
	return nil
}
