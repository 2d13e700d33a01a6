package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/anoixa/photo-bed/database/repo/accounts"
	"github.com/anoixa/photo-bed/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[uint]*models.User

func (s stubUsers) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, accounts.ErrUserNotFound
}

func newJWT(t *testing.T) *auth.JWTService {
	svc, err := auth.NewJWTService(strings.Repeat("k", auth.MinSecretLength), time.Hour)
	require.NoError(t, err)
	return svc
}

func setupTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": caller.ID, "role": caller.Role})
	})
	router.GET("/test", handlers...)
	return router
}

func doRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	jwtSvc := newJWT(t)
	users := stubUsers{
		1: {ID: 1, Username: "alice", Role: models.RoleModerator},
		2: {ID: 2, Username: "mallory", Role: models.RoleUser, IsBanned: true},
	}
	router := setupTestRouter(JWTAuth(jwtSvc, users))

	// 令牌中的角色已过期，以数据库为准
	token, _, err := jwtSvc.GenerateAccessToken("alice", 1, models.RoleUser)
	require.NoError(t, err)
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"moderator"`)

	banned, _, err := jwtSvc.GenerateAccessToken("mallory", 2, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doRequest(router, "Bearer "+banned).Code)

	ghost, _, err := jwtSvc.GenerateAccessToken("ghost", 3, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "Bearer "+ghost).Code)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "Bearer garbage").Code)
}

func TestJWTAuth_WithoutLookup(t *testing.T) {
	jwtSvc := newJWT(t)
	router := setupTestRouter(JWTAuth(jwtSvc, nil))

	token, _, err := jwtSvc.GenerateAccessToken("bob", 9, models.RoleAdmin)
	require.NoError(t, err)
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestRequireRole(t *testing.T) {
	jwtSvc := newJWT(t)
	router := setupTestRouter(JWTAuth(jwtSvc, nil), RequireRole(models.RoleAdmin, models.RoleModerator))

	user, _, _ := jwtSvc.GenerateAccessToken("u", 1, models.RoleUser)
	mod, _, _ := jwtSvc.GenerateAccessToken("m", 2, models.RoleModerator)

	assert.Equal(t, http.StatusForbidden, doRequest(router, "Bearer "+user).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "Bearer "+mod).Code)

	// 未认证时没有角色信息
	bare := setupTestRouter(RequireRole(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, doRequest(bare, "").Code)
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2, time.Minute)
	defer limiter.StopCleanup()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// 其他客户端不受影响
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	limiter.StopCleanup()
}

func TestRequestIDAndMetrics(t *testing.T) {
	ResetMetrics()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Metrics())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))

	m := GetMetrics()
	assert.EqualValues(t, 2, m["request_count"])
	assert.EqualValues(t, 1, m["server_errors"])
}

func TestConcurrencyLimiter(t *testing.T) {
	limiter := NewConcurrencyLimiter(1)
	gin.SetMode(gin.TestMode)
	router := gin.New()

	inside := make(chan struct{})
	release := make(chan struct{})
	router.GET("/slow", limiter.Middleware(), func(c *gin.Context) {
		close(inside)
		<-release
		c.Status(http.StatusOK)
	})
	router.GET("/fast", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
		done <- w.Code
	}()
	<-inside

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}
