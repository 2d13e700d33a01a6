package utils

import (
	"net/http"
	"strings"
)

// mimeToExtMap MIME类型到安全扩展名的映射
var mimeToExtMap = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// GetSafeExtension 根据MIME类型返回安全的文件扩展名
// 如果MIME类型不被允许，返回空字符串
func GetSafeExtension(mimeType string) string {
	mimeType = strings.Split(mimeType, ";")[0]
	mimeType = strings.TrimSpace(mimeType)

	if ext, ok := mimeToExtMap[mimeType]; ok {
		return ext
	}
	return ""
}

// SniffContentType 根据文件头判断内容类型
func SniffContentType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}

// ContentTypeByExtension 根据扩展名返回 MIME 类型，未知时返回 application/octet-stream
func ContentTypeByExtension(ext string) string {
	ext = "." + strings.TrimPrefix(strings.ToLower(ext), ".")
	for mimeType, e := range mimeToExtMap {
		if e == ext {
			return mimeType
		}
	}
	switch ext {
	case ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
