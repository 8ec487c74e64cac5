package models

// ScanResponse is the response for POST /api/v1/scan.
type ScanResponse struct {
	// Success indicates whether the full scan pipeline completed.
	Success bool `json:"success"`

	// CertNumber is the certification number read from the card photo.
	CertNumber string `json:"cert_number,omitempty"`

	// Card is the registry record resolved from the cert number.
	Card *CertRecord `json:"psa_card,omitempty"`

	// NumResults is the number of retained sale listings.
	NumResults int `json:"num_results"`

	// Listings are the retained sale listings in fetch order.
	Listings []SaleListing `json:"listings,omitempty"`

	// Statistics is the price summary; null when no listings were found
	// (never zero-valued; "no sales" is not "zero-value sales").
	Statistics *PriceStats `json:"statistics,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// PageListing is the wire form of a SaleListing with the sold date
// serialized as an ISO-8601 string or null.
type PageListing struct {
	Title           string  `json:"title"`
	NormalizedTitle string  `json:"normalized_title"`
	SellDate        *string `json:"sell_date"`
	SellPrice       float64 `json:"sell_price"`
	AuthGuarantee   bool    `json:"auth_guarantee"`
	Vaulted         bool    `json:"psa_vault"`
	URL             *string `json:"url"`
	Image           *string `json:"image"`
}

// PageResponse is the response for POST /api/v1/scrape/page.
type PageResponse struct {
	Success    bool          `json:"success"`
	Term       string        `json:"term"`
	Page       int           `json:"page"`
	NumResults int           `json:"num_results"`
	Listings   []PageListing `json:"listings"`
	Error      *ErrorDetail  `json:"error,omitempty"`
}

// RunResponse is the response for POST /api/v1/scrape/run.
type RunResponse struct {
	Success      bool         `json:"success"`
	ScrapeID     string       `json:"scrape_id,omitempty"`
	Term         string       `json:"term"`
	MaxPages     int          `json:"max_pages"`
	UntilDate    *string      `json:"until_date"`
	StoppedEarly bool         `json:"stopped_early"`
	StopReason   StopReason   `json:"stop_reason,omitempty"`
	NumResults   int          `json:"num_results"`
	NumOnDay     int          `json:"num_on_day"`
	Error        *ErrorDetail `json:"error,omitempty"`
}

// BatchTermResult is the per-term outcome of a batch fan-out.
type BatchTermResult struct {
	Term       string `json:"term"`
	Success    bool   `json:"success"`
	ScrapeID   string `json:"scrape_id,omitempty"`
	NumResults int    `json:"num_results,omitempty"`
	NumOnDay   int    `json:"num_on_day,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchResponse is the response for POST /api/v1/scrape/batch.
type BatchResponse struct {
	Success    bool              `json:"success"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Errors     int               `json:"errors"`
	UntilDate  string            `json:"until_date"`
	Results    []BatchTermResult `json:"results"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
