package ebay

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/models"
)

// Fetcher retrieves and parses one results page at a time, with a
// bounded retry budget. Retry exhaustion degrades to an empty page with
// OK=false rather than an error: "nothing found" is a legitimate outcome
// at this layer, and the caller decides what an empty page means.
type Fetcher struct {
	cfg  config.MarketplaceConfig
	base *url.URL
}

// NewFetcher creates a Fetcher from the marketplace configuration.
func NewFetcher(cfg config.MarketplaceConfig) (*Fetcher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ebay: parse base URL: %w", err)
	}
	return &Fetcher{cfg: cfg, base: base}, nil
}

// FetchPage fetches and parses one (term, page) results page.
// retries < 0 selects the configured default budget.
func (f *Fetcher) FetchPage(ctx context.Context, q SearchQuery, retries int) models.ScrapePage {
	if retries < 0 {
		retries = f.cfg.MaxRetries
	}

	result := models.ScrapePage{Term: q.Term, Page: q.Page, Listings: []models.SaleListing{}}
	target := buildSearchURL(f.base, q)

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying page fetch",
				"term", q.Term, "page", q.Page,
				"attempt", attempt, "budget", retries,
			)
			select {
			case <-time.After(f.cfg.RetryDelay):
			case <-ctx.Done():
				return result
			}
		}

		listings, err := f.fetchOnce(ctx, target)
		if err != nil {
			slog.Warn("page fetch failed",
				"term", q.Term, "page", q.Page, "error", err,
			)
			continue
		}

		result.Listings = listings
		result.OK = true
		return result
	}

	// Designed degradation: empty listings, OK=false. The pagination
	// controller maps this to its error stop, not to an empty page.
	slog.Error("page fetch retries exhausted",
		"term", q.Term, "page", q.Page, "budget", retries,
	)
	return result
}

// fetchOnce performs a single fetch+parse attempt. A block page counts
// as a failure so the retry loop gets another chance through the proxy.
func (f *Fetcher) fetchOnce(ctx context.Context, target string) ([]models.SaleListing, error) {
	body, err := fetchPage(ctx, target, f.cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	if looksBlocked(body, f.cfg.MinBodyBytes) {
		return nil, fmt.Errorf("ebay: response looks like a block page (%d bytes)", len(body))
	}

	return ParsePage(string(body), f.base), nil
}
