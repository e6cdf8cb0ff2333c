package server

import (
	"time"

	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// requestLogger 为每个请求分配 request id 并记录访问日志
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("cost", time.Since(start)),
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("[HTTP]", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("[HTTP]", fields...)
		default:
			logger.Debug("[HTTP]", fields...)
		}
	}
}
