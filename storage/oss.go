package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/anoixa/photo-bed/config"
)

// OSSStorage 阿里云 OSS 存储实现
type OSSStorage struct {
	client *oss.Client
	bucket *oss.Bucket
	prefix string
}

// NewOSSStorage 创建 OSS 存储
func NewOSSStorage(cfg *config.Config) (*OSSStorage, error) {
	endpoint := strings.TrimSpace(cfg.MediaOSSEndpoint)
	if endpoint == "" {
		return nil, errors.New("storage: missing OSS endpoint")
	}
	bucketName := strings.TrimSpace(cfg.MediaOSSBucket)
	if bucketName == "" {
		return nil, errors.New("storage: missing OSS bucket")
	}
	accessKey := strings.TrimSpace(cfg.MediaOSSAccessKeyID)
	secretKey := strings.TrimSpace(cfg.MediaOSSAccessKeySecret)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing OSS credentials")
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}

	return &OSSStorage{
		client: client,
		bucket: bucket,
		prefix: trimPrefix(cfg.MediaOSSPrefix),
	}, nil
}

func isOSSNotFound(err error) bool {
	var svcErr oss.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode == http.StatusNotFound || svcErr.Code == "NoSuchKey"
	}
	return false
}

// SaveWithContext 上传对象
func (s *OSSStorage) SaveWithContext(ctx context.Context, key string, file io.Reader) error {
	data, err := readPayload(file)
	if err != nil {
		return err
	}

	options := []oss.Option{oss.WithContext(ctx), oss.ContentType(contentTypeForKey(key))}
	if err := s.bucket.PutObject(joinPrefix(s.prefix, key), bytes.NewReader(data), options...); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// GetWithContext 获取对象
func (s *OSSStorage) GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error) {
	body, err := s.bucket.GetObject(joinPrefix(s.prefix, key), oss.WithContext(ctx))
	if err != nil {
		if isOSSNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return bufferBody(body, key)
}

// DeleteWithContext 删除对象
func (s *OSSStorage) DeleteWithContext(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(joinPrefix(s.prefix, key), oss.WithContext(ctx)); err != nil {
		if isOSSNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *OSSStorage) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.bucket.IsObjectExist(joinPrefix(s.prefix, key), oss.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check object: %w", err)
	}
	return exists, nil
}

// Health 检查 bucket 是否存在
func (s *OSSStorage) Health(ctx context.Context) error {
	ok, err := s.client.IsBucketExist(s.bucket.BucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket '%s' does not exist", s.bucket.BucketName)
	}
	return nil
}

// Name 返回存储名称
func (s *OSSStorage) Name() string {
	return TypeOSS
}
