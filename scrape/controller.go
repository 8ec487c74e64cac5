// Package scrape drives the page fetcher across result pages and
// aggregates listings into a single run, enforcing the stop conditions
// (fetch error, empty page, until-date boundary, page cap).
package scrape

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/ebay"
	"github.com/J3698/tcg/models"
)

// PageFetcher fetches and parses one results page. Satisfied by
// *ebay.Fetcher; stubbed in tests.
type PageFetcher interface {
	FetchPage(ctx context.Context, q ebay.SearchQuery, retries int) models.ScrapePage
}

// RunOptions configures one pagination run.
type RunOptions struct {
	// Term is the marketplace search term. Required.
	Term string

	// Grade restricts results to one numeric grade. Optional.
	Grade string

	// MaxPages caps the number of pages fetched. Zero selects the
	// configured default: DefaultMaxPages, or UntilMaxPages when Until
	// is set.
	MaxPages int

	// Until stops the run once the aggregate contains a listing sold
	// strictly before this date.
	Until *time.Time

	// Retries is the per-page retry budget; negative selects the
	// fetcher's default.
	Retries int
}

// Controller runs the pagination state machine. Pages are fetched
// strictly sequentially: page N's stop decision depends on page N's
// content, so pages are never fetched in parallel.
type Controller struct {
	fetcher PageFetcher
	cfg     config.ScrapeConfig

	// now is replaceable in tests; the on-day window and run timestamps
	// derive from it.
	now func() time.Time
}

// NewController creates a pagination controller over the given fetcher.
func NewController(fetcher PageFetcher, cfg config.ScrapeConfig) *Controller {
	return &Controller{fetcher: fetcher, cfg: cfg, now: time.Now}
}

// Run fetches pages for opts.Term until a stop condition fires and
// returns the aggregate. The returned run always has exactly one stop
// reason set; listings accumulate in page-then-row order with no
// de-duplication across pages.
func (c *Controller) Run(ctx context.Context, opts RunOptions) *models.ScrapeRun {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		if opts.Until != nil {
			maxPages = c.cfg.UntilMaxPages
		} else {
			maxPages = c.cfg.DefaultMaxPages
		}
	}

	run := &models.ScrapeRun{
		ID:        uuid.NewString(),
		Term:      opts.Term,
		Listings:  []models.SaleListing{},
		CreatedAt: c.now(),
	}

	slog.Info("starting pagination run",
		"term", opts.Term, "max_pages", maxPages, "until", opts.Until,
	)

	for page := 1; page <= maxPages; page++ {
		result := c.fetcher.FetchPage(ctx, ebay.SearchQuery{
			Term:  opts.Term,
			Grade: opts.Grade,
			Page:  page,
		}, opts.Retries)

		run.Listings = append(run.Listings, result.Listings...)
		run.PagesDone = page

		// Stop rules, evaluated in order after every page.
		if !result.OK {
			run.StopReason = models.StopError
			break
		}
		if len(result.Listings) == 0 {
			run.StopReason = models.StopEmptyPage
			break
		}
		if opts.Until != nil && anyBefore(run.Listings, *opts.Until) {
			// Checked over the aggregate, not just the current page: a
			// later page can retroactively cross the boundary. The
			// boundary-crossing page's listings stay in the run.
			run.StopReason = models.StopUntilDate
			break
		}
		if page == maxPages {
			run.StopReason = models.StopMaxPages
			break
		}

		// Randomized inter-page delay to reduce load on the source.
		delay := c.cfg.PageDelay + time.Duration(rand.Int63n(int64(c.cfg.PageJitter)+1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			run.StopReason = models.StopError
			return run
		}
	}

	run.NumOnDay = c.countOnLastFullDay(run.Listings)

	slog.Info("pagination run finished",
		"term", opts.Term, "pages", run.PagesDone,
		"stop_reason", run.StopReason, "num_results", len(run.Listings),
		"num_on_day", run.NumOnDay,
	)

	return run
}

// anyBefore reports whether any listing sold strictly before the boundary.
func anyBefore(listings []models.SaleListing, boundary time.Time) bool {
	for _, l := range listings {
		if l.SoldAt.Before(boundary) {
			return true
		}
	}
	return false
}

// countOnLastFullDay counts the listings sold yesterday, midnight to
// midnight, the most recent day with complete data.
func (c *Controller) countOnLastFullDay(listings []models.SaleListing) int {
	// Sold dates parse as UTC midnights, so the window is UTC too.
	today := midnight(c.now().UTC())
	yesterday := today.AddDate(0, 0, -1)

	n := 0
	for _, l := range listings {
		if !l.SoldAt.Before(yesterday) && l.SoldAt.Before(today) {
			n++
		}
	}
	return n
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
