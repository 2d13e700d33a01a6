package storage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/anoixa/photo-bed/utils"
)

// joinPrefix 拼接对象前缀
func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	return path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

// contentTypeForKey 根据对象扩展名推断内容类型
func contentTypeForKey(key string) string {
	return utils.ContentTypeByExtension(path.Ext(key))
}

// bufferBody 读取远端响应体并转为可 Seek 的 Reader
func bufferBody(body io.ReadCloser, key string) (io.ReadSeeker, error) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return bytes.NewReader(data), nil
}

// readPayload 读取上传内容，返回数据与长度
func readPayload(file io.Reader) ([]byte, error) {
	if file == nil {
		return nil, fmt.Errorf("empty payload")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return data, nil
}
