package handler

import (
	"net/http"

	"github.com/J3698/tcg/models"
)

// asScanError normalizes any error to a *models.ScanError.
func asScanError(err error) *models.ScanError {
	scanErr, ok := err.(*models.ScanError)
	if !ok {
		scanErr = models.NewScanError(models.ErrCodeInternal, "", err.Error(), err)
	}
	return scanErr
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScanError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeImageAccess, models.ErrCodeVision, models.ErrCodeCertLookup, models.ErrCodeScrape:
		return http.StatusBadGateway // 502, an upstream collaborator failed
	default:
		return http.StatusInternalServerError // 500
	}
}
