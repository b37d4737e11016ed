package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"oip/quotesync/pkg/logger"
)

// Logger writes one access log line per request
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ctx := c.Request.Context()
		format := "[HTTP] %s %s %d %v"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start)}

		switch {
		case status >= 500:
			log.Errorf(ctx, format, args...)
		case status >= 400:
			log.Warnf(ctx, format, args...)
		default:
			log.Infof(ctx, format, args...)
		}
	}
}
