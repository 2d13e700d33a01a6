package photos

import (
	"net/http"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/gin-gonic/gin"
)

type updateDescriptionRequest struct {
	Description *string `json:"description"`
}

// UpdateDescription 更新描述，description 为 null 时清空
func (h *Handler) UpdateDescription(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateDescription(c.Request.Context(), caller, id, req.Description)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

type addTagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

// AddTags 追加标签
func (h *Handler) AddTags(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req addTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body. 'tags' must be a list of strings.")
		return
	}

	result, err := h.service.AddTagsToPhoto(c.Request.Context(), caller, id, req.Tags)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

// RemoveTag 移除标签
func (h *Handler) RemoveTag(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.RemoveTagFromPhoto(c.Request.Context(), caller, id, c.Param("name"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}
