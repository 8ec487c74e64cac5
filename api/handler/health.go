package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/J3698/tcg/models"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// Health returns the handler for GET /api/v1/health.
func Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		})
	}
}
