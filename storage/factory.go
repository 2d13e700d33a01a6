package storage

import (
	"fmt"
	"strings"

	"github.com/anoixa/photo-bed/config"
	log "github.com/sirupsen/logrus"
)

// NewProvider 按配置创建存储提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	storeType := strings.ToLower(strings.TrimSpace(cfg.MediaStoreType))
	if storeType == "" {
		storeType = TypeLocal
	}

	log.Infof("Initializing '%s' storage provider...", storeType)

	var (
		provider Provider
		err      error
	)
	switch storeType {
	case TypeLocal:
		provider, err = NewLocalStorage(cfg.MediaLocalPath)
	case TypeMinio:
		provider, err = NewMinioStorage(cfg)
	case TypeWebDAV:
		provider, err = newWebDAVFromConfig(cfg)
	case TypeS3:
		provider, err = NewS3Storage(cfg)
	case TypeOSS:
		provider, err = NewOSSStorage(cfg)
	case TypeCOS:
		provider, err = NewCOSStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storeType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storeType, err)
	}

	log.Infof("Successfully initialized '%s' storage provider", provider.Name())
	return provider, nil
}
