package generator

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// PathGenerator 分层路径生成器
type PathGenerator struct{}

// NewPathGenerator 创建路径生成器
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{}
}

// GenerateOriginalKey 生成原图的存储键
// 如 photos/2024/01/15/0f8fad5b-d9cb-469f-a165-70867728950e.jpg
func (pg *PathGenerator) GenerateOriginalKey(folder, publicID, ext string, uploadTime time.Time) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "photos"
	}
	datePath := uploadTime.Format("2006/01/02")
	return fmt.Sprintf("%s/%s/%s%s", folder, datePath, publicID, normalizeExt(ext))
}

// GenerateVariantKey 生成派生图的存储键，同一原图与同一参数段总是得到同一个键
// 如 transformed/w_300-h_200-c_fill/photos/2024/01/15/0f8f....webp
func (pg *PathGenerator) GenerateVariantKey(originalKey, paramSegment, ext string) string {
	base := strings.TrimSuffix(originalKey, path.Ext(originalKey))
	if ext == "" {
		ext = path.Ext(originalKey)
	}
	if paramSegment == "" {
		paramSegment = "original"
	}
	return fmt.Sprintf("transformed/%s/%s%s", paramSegment, base, normalizeExt(ext))
}

// GenerateQRKey 生成二维码的存储键；urlID 为 0 表示原图二维码
func (pg *PathGenerator) GenerateQRKey(photoID, urlID uint) string {
	if urlID == 0 {
		return fmt.Sprintf("qr/photo_%d.png", photoID)
	}
	return fmt.Sprintf("qr/photo_%d_url_%d.png", photoID, urlID)
}

// ParseKindFromKey 从存储键解析资源类型
func (pg *PathGenerator) ParseKindFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) == 0 {
		return ""
	}

	switch parts[0] {
	case "transformed":
		return "transform"
	case "qr":
		return "qr"
	default:
		return "original"
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if ext == "jpeg" || ext == ".jpeg" {
		return ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
