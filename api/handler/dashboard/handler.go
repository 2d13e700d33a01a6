package dashboard

import (
	"net/http"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/internal/dashboard"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler Dashboard 处理器
type Handler struct {
	service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册统计路由，group 需已限制为管理员或版主
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/stats", h.GetStats)             // GET /api/v1/dashboard/stats
	group.POST("/stats/refresh", h.RefreshStats) // POST /api/v1/dashboard/stats/refresh
}

// GetStats 获取统计数据
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get dashboard stats")
		common.RespondError(c, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	common.RespondSuccess(c, stats)
}

// RefreshStats 清除统计缓存
func (h *Handler) RefreshStats(c *gin.Context) {
	if err := h.service.RefreshCache(c.Request.Context()); err != nil {
		log.WithError(err).Error("Failed to refresh dashboard stats")
		common.RespondError(c, http.StatusInternalServerError, "Failed to refresh stats")
		return
	}
	common.RespondSuccessMessage(c, "Stats cache cleared", nil)
}
