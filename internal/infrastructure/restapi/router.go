package restapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter wires the dashboard routes, CORS, request logging, and the
// Prometheus endpoint.
func SetupRouter(handler *WhaleHandler, zl *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(ZapLoggerMiddleware(zl))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/whales", handler.ListWhalesHandler)
		v1.POST("/whales", handler.AddWhaleHandler)
		v1.GET("/whales/:address", handler.GetWhaleHandler)
		v1.DELETE("/whales/:address", handler.RemoveWhaleHandler)
		v1.POST("/whales/:address/select", handler.SelectWhaleHandler)
		v1.GET("/selection", handler.SelectionHandler)
		v1.GET("/stats", handler.StatsHandler)
		v1.GET("/status", handler.StatusHandler)
		v1.POST("/refresh", handler.RefreshHandler)
		v1.POST("/scheduler/pause", handler.PauseHandler)
		v1.POST("/scheduler/resume", handler.ResumeHandler)
	}

	return router
}

// ZapLoggerMiddleware logs each request with latency and status through
// the application logger instead of gin's default writer.
func ZapLoggerMiddleware(zl *zap.Logger) gin.HandlerFunc {
	log := zl.Named("http")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		)
	}
}
