package photos

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/anoixa/photo-bed/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UploadPhoto 上传照片，multipart 字段 file、description、tags
func (h *Handler) UploadPhoto(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "A 'file' field is required")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the maximum size of %d MB", h.maxUploadBytes>>20))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}

	var description *string
	if values, ok := c.GetPostFormArray("description"); ok && len(values) > 0 {
		desc := strings.TrimSpace(values[0])
		if desc != "" {
			description = &desc
		}
	}

	result, err := h.service.UploadPhoto(c.Request.Context(), caller, photo.UploadInput{
		Description: description,
		Tags:        c.PostFormArray("tags"),
		Data:        data,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"user_id":  caller.ID,
			"filename": utils.SanitizeLogMessage(fileHeader.Filename),
		}).WithError(err).Debug("Upload rejected")
		common.RespondServiceError(c, err)
		return
	}

	common.RespondCreated(c, result)
}
