package models

// ScanRequest is the payload for POST /api/v1/scan.
type ScanRequest struct {
	// ImagePath is the stored card-photo reference (bucket-relative
	// path). Required.
	ImagePath string `json:"image_path" binding:"required"`
}

// PageRequest is the payload for POST /api/v1/scrape/page.
type PageRequest struct {
	// Term is the marketplace search term. Required.
	Term string `json:"term" binding:"required"`

	// Page is the 1-based results page number. Required.
	Page int `json:"page" binding:"required,min=1"`

	// MaxRetries is the per-page retry budget. Default: 3.
	MaxRetries *int `json:"max_retries,omitempty" binding:"omitempty,min=0,max=10"`
}

// RunRequest is the payload for POST /api/v1/scrape/run.
type RunRequest struct {
	// Term is the marketplace search term. Required.
	Term string `json:"term" binding:"required"`

	// MaxPages caps the number of pages fetched.
	// Default: 10, or 100 when UntilDate is set.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=1,max=500"`

	// UntilDate stops the run once the aggregate contains a listing
	// sold strictly before this date. Format: "2006-01-02".
	UntilDate string `json:"until_date,omitempty"`
}

// BatchRequest is the payload for POST /api/v1/scrape/batch.
type BatchRequest struct {
	// Limit caps how many candidate terms are scraped. Default: 20.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=200"`
}
