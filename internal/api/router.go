// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"autoease/internal/common/config"
	"autoease/internal/common/logger"
	"autoease/internal/common/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP surface of the session API.
func NewRouter(cfg config.ServerConfig, h *SessionHandler, obs *observability.Observability, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(RequestMetrics(obs))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterHealthRoutes(r)

	api := r.Group("/api")
	api.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, log))
	RegisterSessionRoutes(api, h)
	RegisterCatalogRoutes(api, h)

	return r
}

// RegisterSessionRoutes registers the booking session endpoints.
func RegisterSessionRoutes(api *gin.RouterGroup, h *SessionHandler) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.PUT("/:id/selection", h.UpdateSelection)
		sessions.POST("/:id/rank", h.RankStations)
		sessions.POST("/:id/station", h.ChooseStation)
		sessions.POST("/:id/slot", h.ChooseSlot)
		sessions.POST("/:id/confirm", h.Confirm)
		sessions.POST("/:id/reset", h.Reset)
		sessions.DELETE("/:id/error", h.ClearError)
	}
}

// RegisterCatalogRoutes registers the read-only catalog and recommendation
// endpoints.
func RegisterCatalogRoutes(api *gin.RouterGroup, h *SessionHandler) {
	api.GET("/stations", h.ListStations)
	api.POST("/recommendations", h.Recommend)
}

func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
