// Package photo 照片、标签与派生资源的业务逻辑
package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/photo-bed/cache"
	"github.com/anoixa/photo-bed/config"
	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/media"
	"github.com/anoixa/photo-bed/internal/worker"
	"github.com/anoixa/photo-bed/utils/validator"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultMaxTags 单张照片默认最多标签数
const DefaultMaxTags = 5

// Config 服务配置
type Config struct {
	MaxTags      int
	MediaTimeout time.Duration
	Folder       string
}

// ConfigFromApp 从全局配置读取
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		MaxTags:      cfg.TagsMaxCount,
		MediaTimeout: cfg.MediaTimeout,
		Folder:       cfg.MediaFolder,
	}
}

// UploadInput 上传参数
type UploadInput struct {
	Description *string
	Tags        []string
	Data        []byte
}

// ListQuery 列表参数，UserID 为空时列出全部
type ListQuery struct {
	UserID  *uint
	Page    int
	PerPage int
}

// Service 对外暴露的照片操作
type Service struct {
	db      database.Provider
	assets  *AssetManager
	queries *QueryService
	linker  *Linker
	maxTags int
}

// NewService 组装照片服务
func NewService(db database.Provider, store media.Store, qr media.QRRenderer, cacheHelper *cache.Helper, pool *worker.Pool, cfg Config) *Service {
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = DefaultMaxTags
	}
	assets := NewAssetManager(db, store, qr, pool, AssetManagerConfig{
		Timeout:        cfg.MediaTimeout,
		Folder:         cfg.Folder,
		CleanupRetries: 2,
	})
	return &Service{
		db:      db,
		assets:  assets,
		queries: NewQueryService(db.DB(), cacheHelper),
		linker:  assets.linker,
		maxTags: cfg.MaxTags,
	}
}

// MaxTags 单张照片允许的最多标签数
func (s *Service) MaxTags() int {
	return s.maxTags
}

// UploadPhoto 上传照片
func (s *Service) UploadPhoto(ctx context.Context, caller auth.Caller, in UploadInput) (*PhotoResult, error) {
	if err := validator.ValidateDescription(in.Description); err != nil {
		return nil, validation("invalid description", err)
	}
	names := SplitTagNames(in.Tags)
	if err := validator.ValidateTagsCount(names, s.maxTags); err != nil {
		return nil, validation("too many tags", err)
	}
	if err := validator.ValidateTagNames(names); err != nil {
		return nil, validation("tag name too long", err)
	}

	result, err := s.assets.UploadNewPhoto(ctx, in.Description, names, in.Data, caller.ID)
	if err != nil {
		return nil, err
	}
	// 清除该 ID 可能残留的空值标记
	s.queries.Invalidate(ctx, result.Photo.ID)
	return result, nil
}

// GetPhoto 获取照片
func (s *Service) GetPhoto(ctx context.Context, photoID uint) (*PhotoResult, error) {
	return s.queries.GetByID(ctx, photoID)
}

// ListPhotos 分页列出照片
func (s *Service) ListPhotos(ctx context.Context, q ListQuery) ([]PhotoResult, error) {
	if q.UserID != nil {
		return s.queries.ListByUser(ctx, *q.UserID, q.Page, q.PerPage)
	}
	return s.queries.ListAll(ctx, q.Page, q.PerPage)
}

// SearchPhotos 搜索照片
func (s *Service) SearchPhotos(ctx context.Context, q SearchQuery) ([]PhotoResult, error) {
	return s.queries.Search(ctx, q)
}

// UpdateDescription 更新描述
func (s *Service) UpdateDescription(ctx context.Context, caller auth.Caller, photoID uint, description *string) (*PhotoResult, error) {
	if _, err := s.assets.UpdateDescription(ctx, photoID, description, caller); err != nil {
		return nil, err
	}
	s.queries.Invalidate(ctx, photoID)
	return s.queries.GetByID(ctx, photoID)
}

// DeletePhoto 删除照片及全部派生资源
func (s *Service) DeletePhoto(ctx context.Context, caller auth.Caller, photoID uint) error {
	if err := s.assets.DeletePhoto(ctx, photoID, caller); err != nil {
		return err
	}
	s.queries.MarkDeleted(ctx, photoID)
	return nil
}

// TransformPhoto 生成派生资源
func (s *Service) TransformPhoto(ctx context.Context, caller auth.Caller, photoID uint, req TransformRequest) (*models.PhotoURL, error) {
	return s.assets.Transform(ctx, photoID, req, caller)
}

// ListTransforms 列出照片的派生资源
func (s *Service) ListTransforms(ctx context.Context, photoID uint) ([]models.PhotoURL, error) {
	return s.assets.ListTransforms(ctx, photoID)
}

// CreateQRCode 为原图生成二维码
func (s *Service) CreateQRCode(ctx context.Context, caller auth.Caller, photoID uint, colors media.QRColors) (*PhotoResult, error) {
	if _, err := s.assets.GeneratePhotoQR(ctx, photoID, colors, caller); err != nil {
		return nil, err
	}
	s.queries.Invalidate(ctx, photoID)
	return s.queries.GetByID(ctx, photoID)
}

// CreateTransformQRCode 为派生资源生成二维码
func (s *Service) CreateTransformQRCode(ctx context.Context, caller auth.Caller, photoID, urlID uint, colors media.QRColors) (*models.PhotoURL, error) {
	return s.assets.GenerateURLQR(ctx, photoID, urlID, colors, caller)
}

// DeleteTransformPhoto 删除单个派生资源
func (s *Service) DeleteTransformPhoto(ctx context.Context, caller auth.Caller, urlID uint) error {
	return s.assets.DeleteTransform(ctx, urlID, caller)
}

// AddTagsToPhoto 为照片追加标签，追加后的总数不得超过上限
func (s *Service) AddTagsToPhoto(ctx context.Context, caller auth.Caller, photoID uint, inputs []string) (*PhotoResult, error) {
	names := SplitTagNames(inputs)
	if len(names) == 0 {
		return nil, validation("no tags given", nil)
	}
	if err := validator.ValidateTagNames(names); err != nil {
		return nil, validation("tag name too long", err)
	}

	err := s.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if _, err := s.assets.loadForMutation(ctx, s.assets.photos.WithTx(tx), photoID, caller); err != nil {
			return err
		}

		current, err := s.linker.repo(tx).ListByPhotoID(ctx, photoID)
		if err != nil {
			return fmt.Errorf("failed to load tags: %w", err)
		}
		total := make(map[string]struct{}, len(current)+len(names))
		for _, t := range current {
			total[t.Name] = struct{}{}
		}
		for _, n := range names {
			total[n] = struct{}{}
		}
		if len(total) > s.maxTags {
			return validation("too many tags", fmt.Errorf("%w: you can add a maximum of %d tags", validator.ErrTooManyTags, s.maxTags))
		}

		_, err = s.linker.Attach(ctx, tx, names, photoID)
		return err
	})
	if err != nil {
		return nil, asError(err, KindInternal, "failed to add tags")
	}

	s.queries.Invalidate(ctx, photoID)
	return s.queries.GetByID(ctx, photoID)
}

// RemoveTagFromPhoto 移除照片的标签，关联不存在时不做任何事
func (s *Service) RemoveTagFromPhoto(ctx context.Context, caller auth.Caller, photoID uint, name string) (*PhotoResult, error) {
	err := s.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if _, err := s.assets.loadForMutation(ctx, s.assets.photos.WithTx(tx), photoID, caller); err != nil {
			return err
		}
		removed, err := s.linker.Detach(ctx, tx, name, photoID)
		if err != nil {
			return err
		}
		if removed {
			log.WithFields(log.Fields{"photo_id": photoID, "tag": name}).Debug("Tag detached")
		}
		return nil
	})
	if err != nil {
		return nil, asError(err, KindInternal, "failed to remove tag")
	}

	s.queries.Invalidate(ctx, photoID)
	return s.queries.GetByID(ctx, photoID)
}
