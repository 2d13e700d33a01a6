package core

import (
	"context"
	"time"

	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/storage"
)

const healthCheckTimeout = 3 * time.Second

func checkDatabaseHealth(ctx context.Context, provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}

	db := provider.DB()
	if db == nil {
		return "not initialized"
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "error: " + err.Error()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

// checkCacheHealth 缓存可选，未启用时不影响整体状态
func checkCacheHealth(ctx context.Context, provider cache.Provider) string {
	if provider == nil {
		return "disabled"
	}
	if hc, ok := provider.(interface{ Health(context.Context) error }); ok {
		if err := hc.Health(ctx); err != nil {
			return "unavailable: " + err.Error()
		}
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// healthy 除 disabled 外任一检查非 ok 即不健康
func healthy(checks map[string]string) bool {
	for _, result := range checks {
		if result != "ok" && result != "disabled" {
			return false
		}
	}
	return true
}

func withHealthTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, healthCheckTimeout)
}
