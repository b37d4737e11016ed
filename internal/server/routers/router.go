package routers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oip/quotesync/internal/server/handlers/quote"
	"oip/quotesync/internal/server/middlewares"
	"oip/quotesync/pkg/logger"
)

// SetupRoutes builds the API engine
func SetupRoutes(quoteHandler *quote.QuoteHandler, log logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "quotesync",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/createQuote", quoteHandler.Create)
	r.POST("/createQuotes", quoteHandler.CreateBatch)

	return r
}
