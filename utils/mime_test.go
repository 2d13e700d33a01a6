package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 各种图片类型的 Magic Bytes
var (
	// JPEG: FF D8 FF
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
	// PNG: 89 50 4E 47
	pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	// GIF: GIF87a 或 GIF89a
	gifMagic = []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}
	// WebP: RIFF....WEBP
	webpMagic = []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50, 0x56, 0x50}
)

func TestSniffContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", SniffContentType(jpegMagic))
	assert.Equal(t, "image/png", SniffContentType(pngMagic))
	assert.Equal(t, "image/gif", SniffContentType(gifMagic))
	assert.Equal(t, "image/webp", SniffContentType(webpMagic))
	assert.Equal(t, "text/plain; charset=utf-8", SniffContentType([]byte("hello world")))
}

// TestSniffContentType_LargeInput 只检查前 512 字节
func TestSniffContentType_LargeInput(t *testing.T) {
	data := append(append([]byte{}, pngMagic...), bytes.Repeat([]byte{0}, 4096)...)
	assert.Equal(t, "image/png", SniffContentType(data))
}

func TestGetSafeExtension(t *testing.T) {
	assert.Equal(t, ".jpg", GetSafeExtension("image/jpeg"))
	assert.Equal(t, ".png", GetSafeExtension("image/png; charset=binary"))
	assert.Equal(t, "", GetSafeExtension("text/html"))
}

func TestContentTypeByExtension(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeByExtension("webp"))
	assert.Equal(t, "image/jpeg", ContentTypeByExtension(".JPG"))
	assert.Equal(t, "image/jpeg", ContentTypeByExtension("jpeg"))
	assert.Equal(t, "application/octet-stream", ContentTypeByExtension("exe"))
}
