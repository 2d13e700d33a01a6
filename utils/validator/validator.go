package validator

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// allowedImageMimeTypes Allowed image types
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// MaxDescriptionLength 描述的最大字符数
const MaxDescriptionLength = 1000

// MaxTagNameLength 单个标签名的最大字符数
const MaxTagNameLength = 50

var (
	ErrTooManyTags       = errors.New("too many tags")
	ErrDescriptionLength = errors.New("description too long")
	ErrTagNameLength     = errors.New("tag name too long")
)

// IsImageBytes 判断字节内容是否为允许的图片类型，返回检测到的 MIME 类型
func IsImageBytes(data []byte) (bool, string) {
	if len(data) == 0 {
		return false, ""
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	mimeType := http.DetectContentType(head)
	if allowedImageMimeTypes[mimeType] {
		return true, mimeType
	}
	return false, ""
}

// ValidateTagsCount 标签数量不得超过 max
func ValidateTagsCount(names []string, max int) error {
	if len(names) > max {
		return fmt.Errorf("%w: you can add a maximum of %d tags", ErrTooManyTags, max)
	}
	return nil
}

// ValidateTagNames 逐个校验规范化后的标签名长度
func ValidateTagNames(names []string) error {
	for _, name := range names {
		if utf8.RuneCountInString(name) > MaxTagNameLength {
			return fmt.Errorf("%w: %q exceeds %d characters", ErrTagNameLength, name, MaxTagNameLength)
		}
	}
	return nil
}

// ValidateDescription 描述长度校验，nil 表示清空
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return fmt.Errorf("%w: maximum %d characters", ErrDescriptionLength, MaxDescriptionLength)
	}
	return nil
}
