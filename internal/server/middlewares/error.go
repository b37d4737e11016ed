package middlewares

import (
	"github.com/gin-gonic/gin"

	"oip/quotesync/pkg/ginx"
)

// ErrorHandler renders errors attached with c.Error when no response was written
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ginx.FromError(c, c.Errors.Last().Err)
	}
}
