// Package media 封装图片托管能力：上传、派生变换、删除以及二维码渲染
package media

import (
	"context"
	"errors"
)

var (
	// ErrInvalidParams 变换参数不合法
	ErrInvalidParams = errors.New("invalid transform params")
	// ErrForeignURL 地址不属于当前媒体存储
	ErrForeignURL = errors.New("url is not managed by this media store")
	// ErrEmptyPayload 上传内容为空
	ErrEmptyPayload = errors.New("empty payload")
)

// UploadOptions 上传选项
// Key 非空时直接使用该存储键并覆盖已有对象；否则按 Folder/日期/PublicID 生成
type UploadOptions struct {
	Key       string
	Folder    string
	PublicID  string
	Extension string
}

// Store 媒体存储
type Store interface {
	// Upload 上传内容并返回公开地址
	Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error)
	// TransformURL 计算派生资源的地址，纯函数，不产生网络请求
	TransformURL(baseURL string, params TransformParams) (string, error)
	// Transform 生成派生资源，已存在时直接返回地址
	Transform(ctx context.Context, baseURL string, params TransformParams) (string, error)
	// Destroy 删除资源，资源不存在视为成功
	Destroy(ctx context.Context, url string) error
}

// QRRenderer 二维码渲染
type QRRenderer interface {
	Render(data string, colors QRColors) ([]byte, error)
}

// Transformer 图片变换引擎
type Transformer interface {
	Apply(ctx context.Context, data []byte, params TransformParams) ([]byte, error)
}
