package photos

import (
	"net/http"
	"strconv"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/api/middleware"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/services/photo"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes 未配置时的单文件上限
const DefaultMaxUploadBytes = 10 << 20

// Handler 照片处理器
type Handler struct {
	service        *photo.Service
	maxUploadBytes int64
}

// NewHandler 照片处理器
func NewHandler(service *photo.Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes 注册照片路由，group 需已挂载认证中间件
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.UploadPhoto)                                  // POST /api/v1/photos
	group.GET("", h.ListPhotos)                                    // GET /api/v1/photos
	group.GET("/:id", h.GetPhoto)                                  // GET /api/v1/photos/{id}
	group.PUT("/:id", h.UpdateDescription)                         // PUT /api/v1/photos/{id}
	group.DELETE("/:id", h.DeletePhoto)                            // DELETE /api/v1/photos/{id}
	group.POST("/:id/transform", h.TransformPhoto)                 // POST /api/v1/photos/{id}/transform
	group.GET("/:id/transforms", h.ListTransforms)                 // GET /api/v1/photos/{id}/transforms
	group.DELETE("/transforms/:url_id", h.DeleteTransformPhoto)    // DELETE /api/v1/photos/transforms/{url_id}
	group.POST("/:id/qrcode", h.CreateQRCode)                      // POST /api/v1/photos/{id}/qrcode
	group.POST("/:id/qrcode/:url_id", h.CreateTransformQRCode)     // POST /api/v1/photos/{id}/qrcode/{url_id}
	group.POST("/:id/tags", h.AddTags)                             // POST /api/v1/photos/{id}/tags
	group.DELETE("/:id/tags/:name", h.RemoveTag)                   // DELETE /api/v1/photos/{id}/tags/{name}
}

// callerOrAbort 读取调用者，缺失时响应 401
func callerOrAbort(c *gin.Context) (auth.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Invalid user session")
	}
	return caller, ok
}

// parseIDParam 解析路径中的正整数 ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		common.RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
