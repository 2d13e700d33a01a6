package photos

import (
	"errors"
	"io"
	"net/http"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/internal/media"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"
)

// sourceKey 以已有派生资源为源的字段
const sourceKey = "transform_photo_id"

// TransformPhoto 生成派生资源，请求体为变换参数
func (h *Handler) TransformPhoto(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := photo.TransformRequest{}
	if raw, exists := body[sourceKey]; exists {
		delete(body, sourceKey)
		if raw != nil {
			var sourceID uint
			if err := mapstructure.WeakDecode(raw, &sourceID); err != nil || sourceID == 0 {
				common.RespondError(c, http.StatusBadRequest, "Invalid "+sourceKey)
				return
			}
			req.SourceURLID = &sourceID
		}
	}

	params, err := media.DecodeTransformParams(body)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	req.Params = params

	result, err := h.service.TransformPhoto(c.Request.Context(), caller, id, req)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

// ListTransforms 列出派生资源
func (h *Handler) ListTransforms(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListTransforms(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, list)
}

// bindColors 读取可选的二维码颜色，空请求体使用默认颜色
func bindColors(c *gin.Context) (media.QRColors, bool) {
	var colors media.QRColors
	if err := c.ShouldBindJSON(&colors); err != nil && !errors.Is(err, io.EOF) {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return colors, false
	}
	return colors, true
}

// CreateQRCode 为原图生成二维码
func (h *Handler) CreateQRCode(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	colors, ok := bindColors(c)
	if !ok {
		return
	}

	result, err := h.service.CreateQRCode(c.Request.Context(), caller, id, colors)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

// CreateTransformQRCode 为派生资源生成二维码
func (h *Handler) CreateTransformQRCode(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	urlID, ok := parseIDParam(c, "url_id")
	if !ok {
		return
	}
	colors, ok := bindColors(c)
	if !ok {
		return
	}

	result, err := h.service.CreateTransformQRCode(c.Request.Context(), caller, id, urlID, colors)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}
