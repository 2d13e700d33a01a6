package photo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anoixa/photo-bed/database"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/photos"
	"github.com/anoixa/photo-bed/database/repo/tags"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/media"
	"github.com/anoixa/photo-bed/internal/worker"
	"github.com/anoixa/photo-bed/utils"
	"github.com/anoixa/photo-bed/utils/generator"
	"github.com/anoixa/photo-bed/utils/validator"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	// DefaultMediaTimeout 外部调用默认超时
	DefaultMediaTimeout = 30 * time.Second
	// DefaultFolder 原图存放目录
	DefaultFolder = "photos"

	destroyConcurrency = 4
)

// PhotoResult 照片及其标签，所有返回照片的操作统一使用
type PhotoResult struct {
	Photo models.Photo `json:"photo"`
	Tags  []models.Tag `json:"tags"`
}

// TransformRequest 变换请求，SourceURLID 非空时以该派生资源为源
type TransformRequest struct {
	Params      media.TransformParams
	SourceURLID *uint
}

// AssetManagerConfig 资源管理配置
type AssetManagerConfig struct {
	Timeout time.Duration
	Folder  string
	// CleanupRetries 孤儿资源清理的重试次数
	CleanupRetries int
}

// AssetManager 管理照片与派生资源的生命周期
type AssetManager struct {
	db     database.Provider
	photos *photos.Repository
	urls   *photos.URLRepository
	linker *Linker
	store  media.Store
	qr     media.QRRenderer
	pool   *worker.Pool
	paths  *generator.PathGenerator
	config AssetManagerConfig
}

// NewAssetManager 创建资源管理器，pool 为空时孤儿资源同步清理
func NewAssetManager(db database.Provider, store media.Store, qr media.QRRenderer, pool *worker.Pool, cfg AssetManagerConfig) *AssetManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultMediaTimeout
	}
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	conn := db.DB()
	return &AssetManager{
		db:     db,
		photos: photos.NewRepository(conn),
		urls:   photos.NewURLRepository(conn),
		linker: NewLinker(tags.NewRepository(conn)),
		store:  store,
		qr:     qr,
		pool:   pool,
		paths:  generator.NewPathGenerator(),
		config: cfg,
	}
}

func (m *AssetManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.Timeout)
}

// loadPhoto 读取照片，不存在返回 NotFound
func (m *AssetManager) loadPhoto(ctx context.Context, repo *photos.Repository, photoID uint) (*models.Photo, error) {
	p, err := repo.GetByID(ctx, photoID)
	if err != nil {
		return nil, internal("failed to load photo", err)
	}
	if p == nil {
		return nil, notFound(fmt.Sprintf("photo %d not found", photoID))
	}
	return p, nil
}

// loadForMutation 读取照片并校验修改权限
func (m *AssetManager) loadForMutation(ctx context.Context, repo *photos.Repository, photoID uint, caller auth.Caller) (*models.Photo, error) {
	p, err := m.loadPhoto(ctx, repo, photoID)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizePhotoMutation(caller, p.UserID); err != nil {
		return nil, forbidden()
	}
	return p, nil
}

// loadURL 读取派生资源，photoID 非零时要求属于该照片
func (m *AssetManager) loadURL(ctx context.Context, repo *photos.URLRepository, urlID, photoID uint) (*models.PhotoURL, error) {
	u, err := repo.GetByID(ctx, urlID)
	if err != nil {
		return nil, internal("failed to load derived asset", err)
	}
	if u == nil || (photoID != 0 && u.PhotoID != photoID) {
		return nil, notFound(fmt.Sprintf("derived asset %d not found", urlID))
	}
	return u, nil
}

// UploadNewPhoto 上传原图并在一个事务内写入照片与标签
func (m *AssetManager) UploadNewPhoto(ctx context.Context, description *string, tagNames []string, data []byte, ownerID uint) (*PhotoResult, error) {
	if ok, _ := validator.IsImageBytes(data); !ok {
		return nil, validation("file is not a supported image", nil)
	}

	uctx, cancel := m.withTimeout(ctx)
	fileURL, err := m.store.Upload(uctx, data, media.UploadOptions{Folder: m.config.Folder})
	cancel()
	if err != nil {
		return nil, external("failed to upload photo", err)
	}

	result := &PhotoResult{}
	err = m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		p := &models.Photo{UserID: ownerID, FileURL: fileURL, Description: description}
		if err := m.photos.WithTx(tx).Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create photo: %w", err)
		}
		attached, err := m.linker.Attach(ctx, tx, tagNames, p.ID)
		if err != nil {
			if errors.Is(err, tags.ErrTagNameTooLong) {
				return validation("tag name too long", err)
			}
			return err
		}
		result.Photo = *p
		result.Tags = attached
		return nil
	})
	if err != nil {
		m.cleanupOrphans(fileURL)
		return nil, asError(err, KindInternal, "failed to save photo")
	}

	log.WithFields(log.Fields{"photo_id": result.Photo.ID, "user_id": ownerID, "tags": len(result.Tags)}).Info("Photo uploaded")
	return result, nil
}

// cleanupOrphans 数据库写入失败后删除已上传的远端资源
func (m *AssetManager) cleanupOrphans(urls ...string) {
	task := &worker.AssetCleanupTask{
		URLs:       urls,
		Destroyer:  m.store,
		Timeout:    m.config.Timeout,
		MaxRetries: m.config.CleanupRetries,
	}
	if !worker.SubmitAssetCleanup(m.pool, task) {
		log.WithField("urls", urls).Warn("Orphaned asset cleanup was not scheduled")
	}
}

// destroyAll 并发删除全部远端资源，单个失败不影响其他删除，返回合并后的错误
func (m *AssetManager) destroyAll(ctx context.Context, urls []string) error {
	dctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(destroyConcurrency)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			if err := m.store.Destroy(dctx, url); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("destroy %s: %w", url, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// DeletePhoto 删除照片及其全部派生资源，任一远端删除失败则整体回滚
func (m *AssetManager) DeletePhoto(ctx context.Context, photoID uint, caller auth.Caller) error {
	err := m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		photoRepo := m.photos.WithTx(tx)
		urlRepo := m.urls.WithTx(tx)

		p, err := m.loadForMutation(ctx, photoRepo, photoID, caller)
		if err != nil {
			return err
		}

		derived, err := urlRepo.ListByPhotoID(ctx, photoID)
		if err != nil {
			return fmt.Errorf("failed to list derived assets: %w", err)
		}

		if err := m.linker.repo(tx).UnlinkAll(ctx, photoID); err != nil {
			return fmt.Errorf("failed to unlink tags: %w", err)
		}
		if _, err := urlRepo.DeleteByPhotoID(ctx, photoID); err != nil {
			return fmt.Errorf("failed to delete derived assets: %w", err)
		}
		if _, err := photoRepo.DeleteByID(ctx, photoID); err != nil {
			return fmt.Errorf("failed to delete photo: %w", err)
		}

		assets := make([]string, 0, 2*len(derived)+2)
		for _, u := range derived {
			assets = appendAsset(assets, u.FileURL, u.QRURL)
		}
		assets = appendAsset(assets, p.FileURL, p.QRURL)

		if err := m.destroyAll(ctx, assets); err != nil {
			return external("failed to destroy photo assets", err)
		}
		return nil
	})
	if err != nil {
		logFailure(err, log.Fields{"photo_id": photoID, "caller": caller.ID}, "Photo deletion failed")
		return asError(err, KindInternal, "failed to delete photo")
	}

	log.WithFields(log.Fields{"photo_id": photoID, "caller": caller.ID}).Info("Photo deleted")
	return nil
}

func appendAsset(assets []string, fileURL string, qrURL *string) []string {
	assets = append(assets, fileURL)
	if qrURL != nil && *qrURL != "" {
		assets = append(assets, *qrURL)
	}
	return assets
}

// UpdateDescription 更新照片描述，nil 表示清空
func (m *AssetManager) UpdateDescription(ctx context.Context, photoID uint, description *string, caller auth.Caller) (*models.Photo, error) {
	if err := validator.ValidateDescription(description); err != nil {
		return nil, validation("invalid description", err)
	}

	var updated *models.Photo
	err := m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		repo := m.photos.WithTx(tx)
		if _, err := m.loadForMutation(ctx, repo, photoID, caller); err != nil {
			return err
		}
		if _, err := repo.UpdateDescription(ctx, photoID, description); err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
		p, err := m.loadPhoto(ctx, repo, photoID)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, asError(err, KindInternal, "failed to update description")
	}
	return updated, nil
}

// Transform 生成派生资源；目标地址由参数唯一确定，已存在时直接返回
func (m *AssetManager) Transform(ctx context.Context, photoID uint, req TransformRequest, caller auth.Caller) (*models.PhotoURL, error) {
	p, err := m.loadForMutation(ctx, m.photos, photoID, caller)
	if err != nil {
		return nil, err
	}

	source := p.FileURL
	if req.SourceURLID != nil {
		u, err := m.loadURL(ctx, m.urls, *req.SourceURLID, photoID)
		if err != nil {
			return nil, err
		}
		source = u.FileURL
	}

	params := req.Params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, validation("invalid transform params", err)
	}

	target, err := m.store.TransformURL(source, params)
	if err != nil {
		if errors.Is(err, media.ErrInvalidParams) {
			return nil, validation("invalid transform params", err)
		}
		return nil, internal("failed to compute transform url", err)
	}

	existing, err := m.urls.GetByFileURL(ctx, target)
	if err != nil {
		return nil, internal("failed to look up derived asset", err)
	}
	if existing != nil {
		return existing, nil
	}

	tctx, cancel := m.withTimeout(ctx)
	materialized, err := m.store.Transform(tctx, source, params)
	cancel()
	if err != nil {
		logFailure(err, log.Fields{"photo_id": photoID, "target": target}, "Transform failed")
		return nil, external("failed to transform photo", err)
	}
	if materialized != target {
		log.WithFields(log.Fields{"expected": target, "actual": materialized}).Warn("Media store returned an unexpected transform url")
	}

	var record *models.PhotoURL
	err = m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		u, created, err := m.urls.WithTx(tx).FirstOrCreate(ctx, photoID, target)
		if err != nil {
			return err
		}
		if created {
			log.WithFields(log.Fields{"photo_id": photoID, "url_id": u.ID}).Info("Derived asset created")
		}
		record = u
		return nil
	})
	if err != nil {
		return nil, asError(err, KindInternal, "failed to save derived asset")
	}
	return record, nil
}

// ListTransforms 列出照片的派生资源
func (m *AssetManager) ListTransforms(ctx context.Context, photoID uint) ([]models.PhotoURL, error) {
	if _, err := m.loadPhoto(ctx, m.photos, photoID); err != nil {
		return nil, err
	}
	list, err := m.urls.ListByPhotoID(ctx, photoID)
	if err != nil {
		return nil, internal("failed to list derived assets", err)
	}
	if list == nil {
		list = []models.PhotoURL{}
	}
	return list, nil
}

// renderQR 渲染并上传二维码，返回二维码地址
func (m *AssetManager) renderQR(ctx context.Context, data, key string, colors media.QRColors) (string, error) {
	png, err := m.qr.Render(data, colors)
	if err != nil {
		return "", external("failed to render qr code", err)
	}

	uctx, cancel := m.withTimeout(ctx)
	defer cancel()
	qrURL, err := m.store.Upload(uctx, png, media.UploadOptions{Key: key})
	if err != nil {
		return "", external("failed to upload qr code", err)
	}
	return qrURL, nil
}

// GeneratePhotoQR 为原图生成二维码，已生成时不做任何事
func (m *AssetManager) GeneratePhotoQR(ctx context.Context, photoID uint, colors media.QRColors, caller auth.Caller) (*models.Photo, error) {
	p, err := m.loadForMutation(ctx, m.photos, photoID, caller)
	if err != nil {
		return nil, err
	}
	if p.QRURL != nil {
		return p, nil
	}
	if err := validateColors(colors); err != nil {
		return nil, err
	}

	qrURL, err := m.renderQR(ctx, p.FileURL, m.paths.GenerateQRKey(p.ID, 0), colors)
	if err != nil {
		return nil, err
	}

	err = m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		repo := m.photos.WithTx(tx)
		if _, err := repo.SetQRURLIfEmpty(ctx, photoID, qrURL); err != nil {
			return fmt.Errorf("failed to save qr url: %w", err)
		}
		// 并发生成时以先写入者为准
		refreshed, err := m.loadPhoto(ctx, repo, photoID)
		if err != nil {
			return err
		}
		p = refreshed
		return nil
	})
	if err != nil {
		return nil, asError(err, KindInternal, "failed to save qr code")
	}
	return p, nil
}

// GenerateURLQR 为派生资源生成二维码，已生成时不做任何事
func (m *AssetManager) GenerateURLQR(ctx context.Context, photoID, urlID uint, colors media.QRColors, caller auth.Caller) (*models.PhotoURL, error) {
	if _, err := m.loadForMutation(ctx, m.photos, photoID, caller); err != nil {
		return nil, err
	}
	u, err := m.loadURL(ctx, m.urls, urlID, photoID)
	if err != nil {
		return nil, err
	}
	if u.QRURL != nil {
		return u, nil
	}
	if err := validateColors(colors); err != nil {
		return nil, err
	}

	qrURL, err := m.renderQR(ctx, u.FileURL, m.paths.GenerateQRKey(photoID, u.ID), colors)
	if err != nil {
		return nil, err
	}

	err = m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		repo := m.urls.WithTx(tx)
		if _, err := repo.SetQRURLIfEmpty(ctx, u.ID, qrURL); err != nil {
			return fmt.Errorf("failed to save qr url: %w", err)
		}
		refreshed, err := m.loadURL(ctx, repo, u.ID, photoID)
		if err != nil {
			return err
		}
		u = refreshed
		return nil
	})
	if err != nil {
		return nil, asError(err, KindInternal, "failed to save qr code")
	}
	return u, nil
}

// DeleteTransform 删除单个派生资源及其二维码
func (m *AssetManager) DeleteTransform(ctx context.Context, urlID uint, caller auth.Caller) error {
	err := m.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		urlRepo := m.urls.WithTx(tx)
		u, err := m.loadURL(ctx, urlRepo, urlID, 0)
		if err != nil {
			return err
		}
		if _, err := m.loadForMutation(ctx, m.photos.WithTx(tx), u.PhotoID, caller); err != nil {
			return err
		}
		if _, err := urlRepo.DeleteByID(ctx, u.ID); err != nil {
			return fmt.Errorf("failed to delete derived asset: %w", err)
		}
		if err := m.destroyAll(ctx, appendAsset(nil, u.FileURL, u.QRURL)); err != nil {
			return external("failed to destroy derived asset", err)
		}
		return nil
	})
	if err != nil {
		logFailure(err, log.Fields{"url_id": urlID, "caller": caller.ID}, "Derived asset deletion failed")
		return asError(err, KindInternal, "failed to delete derived asset")
	}
	return nil
}

func validateColors(colors media.QRColors) error {
	if _, err := media.ParseColor(colors.FillColor, nil); err != nil {
		return validation("invalid fill_color", err)
	}
	if _, err := media.ParseColor(colors.BackColor, nil); err != nil {
		return validation("invalid back_color", err)
	}
	return nil
}

// logFailure 只记录外部与内部失败，预期内的错误不打日志
func logFailure(err error, fields log.Fields, msg string) {
	switch KindOf(err) {
	case KindNotFound, KindForbidden, KindValidation:
		return
	}
	entry := log.WithFields(fields).WithError(err)
	if utils.IsTimeout(err) {
		entry.Warn(msg + " (timeout)")
		return
	}
	entry.Error(msg)
}
