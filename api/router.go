package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/J3698/tcg/api/handler"
	"github.com/J3698/tcg/api/middleware"
	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(scanner handler.Scanner, fetcher handler.PageFetcher, runner handler.RunSaver,
	cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	notify := &webhook.Notifier{URL: cfg.Webhook.URL, Secret: cfg.Webhook.Secret}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health, no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Full photo-to-statistics scan.
	protected.POST("/scan", handler.Scan(scanner))

	// Scrape surfaces: single page, multi-page run, candidate fan-out.
	protected.POST("/scrape/page", handler.Page(fetcher))
	protected.POST("/scrape/run", handler.Run(runner, cfg.Scrape, notify))
	protected.POST("/scrape/batch", handler.Batch(runner, cfg.Batch, notify))

	return r
}
