package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Pipeline stage failures, attributed to the stage that failed.
	ErrCodeImageAccess = "IMAGE_ACCESS_FAILED"
	ErrCodeVision      = "VISION_EXTRACTION_FAILED"
	ErrCodeCertLookup  = "CERT_LOOKUP_FAILED"
	ErrCodeScrape      = "SCRAPE_FAILED"
	ErrCodeStorage     = "STORAGE_FAILED"
)

// Pipeline stage names carried on ScanError for failure attribution.
const (
	StageImage    = "image"
	StageVision   = "vision"
	StageRegistry = "registry"
	StageScrape   = "scrape"
	StageStorage  = "storage"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// ScanError is the internal error type carrying an error code and the
// pipeline stage that produced it. It implements the error interface
// and supports error wrapping via Unwrap.
type ScanError struct {
	Code    string
	Stage   string
	Message string
	Err     error // wrapped original error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewScanError creates a new ScanError.
func NewScanError(code, stage, message string, err error) *ScanError {
	return &ScanError{Code: code, Stage: stage, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScanError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Stage: e.Stage, Message: e.Message}
}
