package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/anoixa/photo-bed/storage"
	"github.com/anoixa/photo-bed/utils"
	"github.com/anoixa/photo-bed/utils/generator"
	"github.com/anoixa/photo-bed/utils/validator"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StorageStore 基于存储提供者的媒体存储，公开地址为 baseURL + "/" + key
type StorageStore struct {
	provider    storage.Provider
	transformer Transformer
	baseURL     string
	paths       *generator.PathGenerator
	now         func() time.Time
}

// NewStorageStore 创建媒体存储，transformer 为空时派生变换不可用
func NewStorageStore(provider storage.Provider, transformer Transformer, baseURL string) *StorageStore {
	return &StorageStore{
		provider:    provider,
		transformer: transformer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		paths:       generator.NewPathGenerator(),
		now:         time.Now,
	}
}

// BaseURL 返回公开地址前缀
func (s *StorageStore) BaseURL() string {
	return s.baseURL
}

// URLForKey 存储键转公开地址
func (s *StorageStore) URLForKey(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL 公开地址转存储键
func (s *StorageStore) KeyFromURL(url string) (string, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	key := strings.TrimPrefix(url, prefix)
	if !storage.IsValidStoragePath(key) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	return key, nil
}

// Upload 上传内容
func (s *StorageStore) Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	key := opts.Key
	if key == "" {
		ext := opts.Extension
		if ext == "" {
			ext = utils.GetSafeExtension(utils.SniffContentType(data))
		}
		publicID := opts.PublicID
		if publicID == "" {
			publicID = uuid.NewString()
		}
		key = s.paths.GenerateOriginalKey(opts.Folder, publicID, ext, s.now().UTC())
	}
	if !storage.IsValidStoragePath(key) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}

	if err := s.provider.SaveWithContext(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	log.WithFields(log.Fields{"key": key, "size": len(data), "storage": s.provider.Name()}).Debug("Media uploaded")
	return s.URLForKey(key), nil
}

// TransformURL 计算派生资源地址
func (s *StorageStore) TransformURL(baseURL string, params TransformParams) (string, error) {
	key, err := s.KeyFromURL(baseURL)
	if err != nil {
		return "", err
	}
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return "", err
	}

	ext := path.Ext(key)
	if params.FetchFormat != "" {
		ext = params.FetchFormat
	}
	return s.URLForKey(s.paths.GenerateVariantKey(key, params.Segment(), ext)), nil
}

// Transform 生成派生资源
func (s *StorageStore) Transform(ctx context.Context, baseURL string, params TransformParams) (string, error) {
	target, err := s.TransformURL(baseURL, params)
	if err != nil {
		return "", err
	}
	if s.transformer == nil {
		return "", errors.New("image transformer is not configured")
	}

	targetKey, _ := s.KeyFromURL(target)
	exists, err := s.provider.Exists(ctx, targetKey)
	if err != nil {
		return "", fmt.Errorf("check variant %s: %w", targetKey, err)
	}
	if exists {
		return target, nil
	}

	sourceKey, _ := s.KeyFromURL(baseURL)
	reader, err := s.provider.GetWithContext(ctx, sourceKey)
	if err != nil {
		return "", fmt.Errorf("read source %s: %w", sourceKey, err)
	}
	source, err := io.ReadAll(reader)
	if closer, ok := reader.(io.Closer); ok {
		_ = closer.Close()
	}
	if err != nil {
		return "", fmt.Errorf("read source %s: %w", sourceKey, err)
	}
	if ok, _ := validator.IsImageBytes(source); !ok {
		return "", fmt.Errorf("source %s is not a supported image", sourceKey)
	}

	out, err := s.transformer.Apply(ctx, source, params.Normalize())
	if err != nil {
		return "", fmt.Errorf("transform %s: %w", sourceKey, err)
	}

	if err := s.provider.SaveWithContext(ctx, targetKey, bytes.NewReader(out)); err != nil {
		return "", fmt.Errorf("store variant %s: %w", targetKey, err)
	}

	log.WithFields(log.Fields{"source": sourceKey, "target": targetKey}).Debug("Media variant created")
	return target, nil
}

// Destroy 删除资源
func (s *StorageStore) Destroy(ctx context.Context, url string) error {
	key, err := s.KeyFromURL(url)
	if err != nil {
		return err
	}
	if err := s.provider.DeleteWithContext(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("destroy %s: %w", key, err)
	}
	return nil
}
