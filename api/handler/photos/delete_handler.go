package photos

import (
	"github.com/anoixa/photo-bed/api/common"
	"github.com/gin-gonic/gin"
)

// DeletePhoto 删除照片及其派生资源
func (h *Handler) DeletePhoto(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePhoto(c.Request.Context(), caller, id); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Photo deleted", gin.H{"id": id})
}

// DeleteTransformPhoto 删除单个派生资源
func (h *Handler) DeleteTransformPhoto(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	urlID, ok := parseIDParam(c, "url_id")
	if !ok {
		return
	}

	if err := h.service.DeleteTransformPhoto(c.Request.Context(), caller, urlID); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Derived asset deleted", gin.H{"id": urlID})
}
