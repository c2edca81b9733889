package server

import (
	"slices"
	"time"

	"github.com/naoterumaker/youtube-transcriber/infrastructure/realtime"
	httpHandler "github.com/naoterumaker/youtube-transcriber/interfaces/http"
	"github.com/naoterumaker/youtube-transcriber/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the serve-mode HTTP settings
type RouterConfig struct {
	AllowOrigins []string
	APIToken     string
}

func InitiateRouter(
	config RouterConfig,
	healthHandler httpHandler.IHealthHandler,
	harvestHandler httpHandler.IHarvestHandler,
	harvestHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(config.AllowOrigins)))

	router.GET("/health", healthHandler.Healthz)

	api := router.Group("api")
	api.Use(middleware.Auth(config.APIToken))

	api.POST("/harvest", harvestHandler.Harvest)
	api.GET("/transcripts/:videoId", harvestHandler.GetTranscript)
	api.GET("/harvests/:runId/videos", harvestHandler.ListRunVideos)

	// SSE endpoint for live harvest progress
	if harvestHub != nil {
		api.GET("/events", harvestHub.Serve)
	}

	return router
}

// corsConfig allows every origin when none or "*" is configured.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
