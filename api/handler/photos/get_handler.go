package photos

import (
	"net/http"
	"strconv"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/gin-gonic/gin"
)

const defaultPerPage = 20

// GetPhoto 获取单张照片
func (h *Handler) GetPhoto(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetPhoto(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

// ListPhotos 列表与搜索；带 keyword、tag 或 order_by 时走搜索
func (h *Handler) ListPhotos(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid page")
		return
	}
	perPage, err := queryInt(c, "per_page", defaultPerPage)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid per_page")
		return
	}

	var userID *uint
	if raw := c.Query("user_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "Invalid user_id")
			return
		}
		id := uint(v)
		userID = &id
	}

	ctx := c.Request.Context()
	keyword, tag, orderBy := c.Query("keyword"), c.Query("tag"), c.Query("order_by")

	var results []photo.PhotoResult
	if keyword != "" || tag != "" || orderBy != "" {
		results, err = h.service.SearchPhotos(ctx, photo.SearchQuery{
			UserID:  userID,
			Keyword: keyword,
			Tag:     tag,
			OrderBy: orderBy,
			Page:    page,
			PerPage: perPage,
		})
	} else {
		results, err = h.service.ListPhotos(ctx, photo.ListQuery{UserID: userID, Page: page, PerPage: perPage})
	}
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{
		"photos":   results,
		"page":     page,
		"per_page": perPage,
	})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
