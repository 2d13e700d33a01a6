package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/api/middleware"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/internal/services/users"
	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

// Handler 用户管理处理器
type Handler struct {
	service *users.Service
}

func NewHandler(service *users.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册用户管理路由，group 需已限制为管理员或版主
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.ListUsers)
	group.GET("/:id", h.GetUser)
	group.POST("/:id/ban", h.ToggleBan)
	group.PUT("/:id/role", h.SetRole)
}

// ListUsers 用户列表，limit 最大 50，mask 按用户名或邮箱模糊匹配
func (h *Handler) ListUsers(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Invalid user session")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		common.RespondError(c, http.StatusBadRequest, "Invalid limit")
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		common.RespondError(c, http.StatusBadRequest, "Invalid offset")
		return
	}

	list, err := h.service.List(c.Request.Context(), caller, users.ListQuery{
		Limit:  limit,
		Offset: offset,
		Mask:   c.Query("mask"),
	})
	if err != nil {
		respondUserError(c, err)
		return
	}
	common.RespondSuccess(c, list)
}

// GetUser 获取用户
func (h *Handler) GetUser(c *gin.Context) {
	caller, id, ok := callerAndID(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		respondUserError(c, err)
		return
	}
	common.RespondSuccess(c, user)
}

// ToggleBan 切换封禁状态
func (h *Handler) ToggleBan(c *gin.Context) {
	caller, id, ok := callerAndID(c)
	if !ok {
		return
	}
	user, err := h.service.ToggleBan(c.Request.Context(), caller, id)
	if err != nil {
		respondUserError(c, err)
		return
	}
	common.RespondSuccess(c, user)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole 修改角色
func (h *Handler) SetRole(c *gin.Context) {
	caller, id, ok := callerAndID(c)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body. 'role' is required.")
		return
	}

	user, err := h.service.SetRole(c.Request.Context(), caller, id, models.Role(req.Role))
	if err != nil {
		respondUserError(c, err)
		return
	}
	common.RespondSuccess(c, user)
}

func callerAndID(c *gin.Context) (auth.Caller, uint, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Invalid user session")
		return caller, 0, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.RespondError(c, http.StatusBadRequest, "Invalid user id")
		return caller, 0, false
	}
	return caller, uint(id), true
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		common.RespondError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, users.ErrInvalidRole):
		common.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		common.RespondError(c, http.StatusForbidden, "Permission denied")
	default:
		common.RespondServiceError(c, err)
	}
}
