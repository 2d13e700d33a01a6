package core

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/storage"
	"github.com/anoixa/photo-bed/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// mediaCacheControl 媒体对象不可变，原图与派生资源的地址都唯一
const mediaCacheControl = "public, max-age=31536000, immutable"

// mediaHandler 通过 /media/*key 提供存储中的对象
type mediaHandler struct {
	provider storage.Provider
}

func (h *mediaHandler) serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !storage.IsValidStoragePath(key) {
		common.RespondError(c, http.StatusNotFound, "Media not found")
		return
	}

	ctx := c.Request.Context()
	var (
		content io.ReadSeeker
		modTime time.Time
		err     error
	)
	// 本地存储直接使用文件句柄
	if local, ok := h.provider.(*storage.LocalStorage); ok {
		f, openErr := local.OpenFile(ctx, key)
		err = openErr
		if err == nil {
			defer f.Close()
			if info, statErr := f.Stat(); statErr == nil {
				modTime = info.ModTime()
			}
			content = f
		}
	} else {
		content, err = h.provider.GetWithContext(ctx, key)
		if err == nil {
			if closer, ok := content.(io.Closer); ok {
				defer closer.Close()
			}
		}
	}

	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "Media not found")
			return
		}
		log.WithFields(log.Fields{
			"key":     utils.SanitizeLogMessage(key),
			"storage": h.provider.Name(),
		}).WithError(err).Error("Failed to read media object")
		common.RespondError(c, http.StatusBadGateway, "Failed to read media object")
		return
	}

	c.Header("Cache-Control", mediaCacheControl)
	c.Header("Content-Type", utils.ContentTypeByExtension(path.Ext(key)))
	http.ServeContent(c.Writer, c.Request, path.Base(key), modTime, content)
}
