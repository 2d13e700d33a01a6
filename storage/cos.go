package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/anoixa/photo-bed/config"
	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSStorage 腾讯云 COS 存储实现
type COSStorage struct {
	client *cos.Client
	prefix string
}

// NewCOSStorage 创建 COS 存储
func NewCOSStorage(cfg *config.Config) (*COSStorage, error) {
	baseURL := strings.TrimSpace(cfg.MediaCOSBucketURL)
	if baseURL == "" {
		return nil, errors.New("storage: missing COS bucket URL")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}

	secretID := strings.TrimSpace(cfg.MediaCOSSecretID)
	secretKey := strings.TrimSpace(cfg.MediaCOSSecretKey)
	if secretID == "" || secretKey == "" {
		return nil, errors.New("storage: missing COS credentials")
	}

	transport := &cos.AuthorizationTransport{
		SecretID:  secretID,
		SecretKey: secretKey,
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: parsedURL}, &http.Client{Transport: transport})

	return &COSStorage{
		client: client,
		prefix: trimPrefix(cfg.MediaCOSPrefix),
	}, nil
}

func closeCOSResponse(resp *cos.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// SaveWithContext 上传对象
func (s *COSStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) error {
	data, err := readPayload(file)
	if err != nil {
		return err
	}

	options := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:   contentTypeForKey(key),
			ContentLength: int64(len(data)),
		},
	}
	resp, err := s.client.Object.Put(ctx, joinPrefix(s.prefix, key), bytes.NewReader(data), options)
	closeCOSResponse(resp)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// GetWithContext 获取对象
func (s *COSStorage) GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error) {
	resp, err := s.client.Object.Get(ctx, joinPrefix(s.prefix, key), nil)
	if err != nil {
		closeCOSResponse(resp)
		if cos.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return bufferBody(resp.Body, key)
}

// DeleteWithContext 删除对象
func (s *COSStorage) DeleteWithContext(ctx context.Context, key string) error {
	resp, err := s.client.Object.Delete(ctx, joinPrefix(s.prefix, key))
	closeCOSResponse(resp)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.client.Object.Head(ctx, joinPrefix(s.prefix, key), nil)
	closeCOSResponse(resp)
	if err == nil {
		return true, nil
	}
	if cos.IsNotFoundError(err) {
		return false, nil
	}
	return false, fmt.Errorf("head object: %w", err)
}

// Health 检查 bucket 是否可访问
func (s *COSStorage) Health(ctx context.Context) error {
	resp, err := s.client.Bucket.Head(ctx)
	closeCOSResponse(resp)
	return err
}

// Name 返回存储名称
func (s *COSStorage) Name() string {
	return TypeCOS
}
