package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anoixa/photo-bed/api/common"
	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/anoixa/photo-bed/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// TokenParser 解析访问令牌
type TokenParser interface {
	ParseToken(token string) (*auth.TokenClaims, error)
}

// UserLookup 读取用户当前状态，用于封禁与角色检查
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// JWTAuth Bearer 令牌认证；users 非空时以数据库中的角色为准并拒绝被封禁的用户
func JWTAuth(parser TokenParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "No Authorization request header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unsupported authentication scheme")
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		caller := claims.Caller()
		if users != nil {
			user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
			if err != nil {
				common.RespondErrorAbort(c, http.StatusUnauthorized, "user no longer exists")
				return
			}
			if user.IsBanned {
				log.WithField("username", utils.SanitizeLogUsername(user.Username)).Info("Rejected request from banned user")
				common.RespondErrorAbort(c, http.StatusForbidden, "user is banned")
				return
			}
			caller = auth.Caller{ID: user.ID, Username: user.Username, Role: user.Role}
		}

		c.Set(ContextUserIDKey, caller.ID)
		c.Set(ContextUsernameKey, caller.Username)
		c.Set(ContextRoleKey, caller.Role)
		c.Next()
	}
}

// CallerFrom 从上下文读取调用者身份
func CallerFrom(c *gin.Context) (auth.Caller, bool) {
	id := c.GetUint(ContextUserIDKey)
	if id == 0 {
		return auth.Caller{}, false
	}
	role, _ := c.Get(ContextRoleKey)
	r, _ := role.(models.Role)
	return auth.Caller{ID: id, Username: c.GetString(ContextUsernameKey), Role: r}, true
}
