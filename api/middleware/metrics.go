package middleware

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	RequestIDHeader     = "X-Request-ID"
	ContextRequestIDKey = "request_id"
)

var (
	requestCount    atomic.Int64
	requestDuration atomic.Int64 // in milliseconds
	serverErrors    atomic.Int64
)

// RequestID 为每个请求分配 ID，客户端已提供时沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Metrics 基础监控指标与访问日志
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		requestCount.Add(1)
		requestDuration.Add(duration.Milliseconds())

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"request_id": c.GetString(ContextRequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   duration.String(),
		})
		if status >= 500 {
			serverErrors.Add(1)
			entry.Warn("Request completed")
			return
		}
		entry.Debug("Request completed")
	}
}

// GetMetrics 获取当前指标
func GetMetrics() map[string]interface{} {
	count := requestCount.Load()
	total := requestDuration.Load()
	avg := 0.0
	if count > 0 {
		avg = float64(total) / float64(count)
	}
	return map[string]interface{}{
		"request_count":       count,
		"request_duration_ms": total,
		"avg_duration_ms":     avg,
		"server_errors":       serverErrors.Load(),
	}
}

// ResetMetrics 重置指标
func ResetMetrics() {
	requestCount.Store(0)
	requestDuration.Store(0)
	serverErrors.Store(0)
}
