package core

import (
	"net/http"

	"github.com/anoixa/photo-bed/internal/app"
)

// StartServer 创建 http.Server
func StartServer(container *app.Container) (*http.Server, func()) {
	cfg := container.GetConfig()
	router, clean := NewRouter(&RouterDependencies{
		Config:        cfg,
		Database:      container.GetDatabaseProvider(),
		Storage:       container.GetStorage(),
		CacheProvider: container.GetCacheProvider(),
		TokenParser:   container.GetJWTService(),
		UserLookup:    container.GetAccountsRepo(),
		PhotoService:  container.GetPhotoService(),
		UserService:   container.GetUserService(),
		Dashboard:     container.GetDashboardService(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
