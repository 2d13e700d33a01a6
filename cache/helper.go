package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	// DefaultPhotoCacheExpiration 照片缓存过期时间
	DefaultPhotoCacheExpiration = 1 * time.Hour

	// DefaultEmptyValueCacheExpiration 空值缓存过期时间
	DefaultEmptyValueCacheExpiration = 1 * time.Minute
)

// addJitter 添加随机抖动（+0~10%），防止缓存雪崩
func addJitter(duration time.Duration) time.Duration {
	if duration < 10 {
		return duration
	}
	jitter := time.Duration(rand.Int63n(int64(duration) / 10))
	return duration + jitter
}

// HelperConfig 缓存辅助工具配置
type HelperConfig struct {
	PhotoCacheTTL time.Duration
	EmptyValueTTL time.Duration
}

// DefaultHelperConfig 返回默认配置
func DefaultHelperConfig() HelperConfig {
	return HelperConfig{
		PhotoCacheTTL: DefaultPhotoCacheExpiration,
		EmptyValueTTL: DefaultEmptyValueCacheExpiration,
	}
}

// Helper 缓存辅助工具，provider 为空时所有读取均未命中
type Helper struct {
	provider Provider
	config   HelperConfig
}

// NewHelper 创建新的缓存辅助工具
func NewHelper(provider Provider, cfg ...HelperConfig) *Helper {
	c := DefaultHelperConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if c.PhotoCacheTTL <= 0 {
		c.PhotoCacheTTL = DefaultPhotoCacheExpiration
	}
	if c.EmptyValueTTL <= 0 {
		c.EmptyValueTTL = DefaultEmptyValueCacheExpiration
	}
	return &Helper{
		provider: provider,
		config:   c,
	}
}

// CachePhoto 缓存照片详情，不清除空值标记
func (h *Helper) CachePhoto(ctx context.Context, photoID uint, value interface{}) error {
	if h.provider == nil {
		return fmt.Errorf("cache provider not initialized")
	}
	return h.provider.Set(ctx, Photo.BuildID(photoID), value, addJitter(h.config.PhotoCacheTTL))
}

// GetCachedPhoto 获取缓存的照片详情
func (h *Helper) GetCachedPhoto(ctx context.Context, photoID uint, dest interface{}) error {
	if h.provider == nil {
		return ErrCacheMiss
	}
	return h.provider.Get(ctx, Photo.BuildID(photoID), dest)
}

// DeleteCachedPhoto 删除照片缓存及其空值标记
func (h *Helper) DeleteCachedPhoto(ctx context.Context, photoID uint) error {
	if h.provider == nil {
		return nil
	}
	_ = h.provider.Delete(ctx, Empty.Build(Photo.BuildID(photoID)))
	return h.provider.Delete(ctx, Photo.BuildID(photoID))
}

// MarkPhotoMissing 记录照片不存在
func (h *Helper) MarkPhotoMissing(ctx context.Context, photoID uint) error {
	if h.provider == nil {
		return nil
	}
	return h.provider.Set(ctx, Empty.Build(Photo.BuildID(photoID)), []byte{1}, h.config.EmptyValueTTL)
}

// MarkPhotoDeleted 照片删除后写入空值标记并删除详情缓存
// 标记的有效期覆盖详情缓存的最长 TTL，删除前读出的旧值即使稍后写入也不会被返回
func (h *Helper) MarkPhotoDeleted(ctx context.Context, photoID uint) error {
	if h.provider == nil {
		return nil
	}
	ttl := h.config.PhotoCacheTTL + h.config.PhotoCacheTTL/10
	if err := h.provider.Set(ctx, Empty.Build(Photo.BuildID(photoID)), []byte{1}, ttl); err != nil {
		return err
	}
	return h.provider.Delete(ctx, Photo.BuildID(photoID))
}

// IsPhotoMissing 照片是否已被标记为不存在
func (h *Helper) IsPhotoMissing(ctx context.Context, photoID uint) bool {
	if h.provider == nil {
		return false
	}
	ok, err := h.provider.Exists(ctx, Empty.Build(Photo.BuildID(photoID)))
	return err == nil && ok
}
