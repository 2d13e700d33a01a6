package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// 存储类型
const (
	TypeLocal  = "local"
	TypeMinio  = "minio"
	TypeWebDAV = "webdav"
	TypeS3     = "s3"
	TypeOSS    = "oss"
	TypeCOS    = "cos"
)

// Provider 存储提供者接口
// key 为存储路径，如 photos/2024/01/15/xxx.jpg，内容类型由扩展名推断
type Provider interface {
	// SaveWithContext 保存文件，已存在时覆盖
	SaveWithContext(ctx context.Context, key string, file io.Reader) error

	// GetWithContext 获取文件，不存在时返回包装了 ErrNotFound 的错误
	GetWithContext(ctx context.Context, key string) (io.ReadSeeker, error)

	// DeleteWithContext 删除文件，对象不存在时返回包装了 ErrNotFound 的错误或 nil
	DeleteWithContext(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
