package models

import "time"

// StopReason is the terminal condition that ended a pagination run.
type StopReason string

const (
	// StopEmptyPage: a page yielded zero listings (true end of results,
	// or retry-exhausted degradation upstream).
	StopEmptyPage StopReason = "empty_page"

	// StopUntilDate: the aggregate result contains at least one listing
	// dated strictly before the configured until date.
	StopUntilDate StopReason = "reached_until_date"

	// StopMaxPages: the page cap was reached without another stop firing.
	StopMaxPages StopReason = "max_pages"

	// StopError: a page fetch reported failure (distinct from zero
	// genuine results).
	StopError StopReason = "error"
)

// ScrapePage is the fetch-and-parse result for one (term, page) pair.
// OK distinguishes "genuinely zero results" from "blocked/failed after
// retries"; callers must not conflate the two.
type ScrapePage struct {
	Term     string
	Page     int
	Listings []SaleListing
	OK       bool
}

// ScrapeRun is the aggregate result of one pagination run. Listings are
// ordered page-then-in-page (not necessarily by date). Never mutated
// after the controller returns it.
type ScrapeRun struct {
	ID         string
	Term       string
	Listings   []SaleListing
	StopReason StopReason
	PagesDone  int
	NumOnDay   int
	CreatedAt  time.Time
}

// PriceStats summarizes prices over a non-empty listing set. A nil
// *PriceStats means "no sales", which is distinct from zero-value sales.
type PriceStats struct {
	Average float64 `json:"average_price"`
	Min     float64 `json:"min_price"`
	Max     float64 `json:"max_price"`
}

// ScanResult is the terminal artifact of one scan: the resolved card,
// the listings found for it, and their price summary. Statistics is nil
// when Listings is empty.
type ScanResult struct {
	ImagePath  string
	Cert       CertRecord
	Run        *ScrapeRun
	Statistics *PriceStats
}
