package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/J3698/tcg/models"
)

// Scanner runs the full card-photo pipeline. Satisfied by
// *scan.Orchestrator.
type Scanner interface {
	Scan(ctx context.Context, imagePath string) (*models.ScanResult, error)
}

// Scan returns the handler for POST /api/v1/scan.
//
// Pipeline: image path → signed photo URL → cert number (vision) → card
// identity (registry) → sale listings (pagination run) → statistics →
// persisted run. Any stage failure yields success=false with the failed
// stage attributed in the error body.
func Scan(scanner Scanner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScanResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		result, err := scanner.Scan(c.Request.Context(), req.ImagePath)
		if err != nil {
			scanErr := asScanError(err)
			c.JSON(mapErrorToStatus(scanErr), models.ScanResponse{
				Success: false,
				Error:   scanErr.ToDetail(),
			})
			return
		}

		c.JSON(http.StatusOK, models.ScanResponse{
			Success:    true,
			CertNumber: result.Cert.CertNumber,
			Card:       &result.Cert,
			NumResults: len(result.Run.Listings),
			Listings:   result.Run.Listings,
			Statistics: result.Statistics,
		})
	}
}
