package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/photo-bed/config"
	log "github.com/sirupsen/logrus"
)

// NewProvider 按配置创建缓存提供者，cache_type=none 时返回 nil
func NewProvider(cfg *config.Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CacheType)) {
	case "", TypeMemory:
		p, err := NewMemoryCache(DefaultMemoryConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		log.Info("Cache provider initialized: memory")
		return p, nil
	case TypeRedis:
		p, err := NewRedisCache(RedisConfig{
			Address:     cfg.CacheRedisAddr,
			Password:    cfg.CacheRedisPassword,
			DB:          cfg.CacheRedisDB,
			PoolTimeout: 4 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.CacheRedisAddr, err)
		}
		log.WithField("addr", cfg.CacheRedisAddr).Info("Cache provider initialized: redis")
		return p, nil
	case "none":
		log.Warn("Cache disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

// NewHelperFromConfig 按配置创建缓存辅助工具
func NewHelperFromConfig(provider Provider, cfg *config.Config) *Helper {
	return NewHelper(provider, HelperConfig{
		PhotoCacheTTL: time.Duration(cfg.CachePhotoTTL) * time.Second,
	})
}
