package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/ebay"
	"github.com/J3698/tcg/models"
)

// scriptedFetcher returns canned pages by page number and records every
// query it receives.
type scriptedFetcher struct {
	pages   map[int]models.ScrapePage
	queries []ebay.SearchQuery
}

func (s *scriptedFetcher) FetchPage(_ context.Context, q ebay.SearchQuery, _ int) models.ScrapePage {
	s.queries = append(s.queries, q)
	if p, ok := s.pages[q.Page]; ok {
		p.Term = q.Term
		p.Page = q.Page
		return p
	}
	return models.ScrapePage{Term: q.Term, Page: q.Page, Listings: []models.SaleListing{}, OK: true}
}

func soldOn(day time.Time, n int) []models.SaleListing {
	listings := make([]models.SaleListing, n)
	for i := range listings {
		listings[i] = models.SaleListing{Title: "Charizard PSA 10", SoldAt: day, Price: 100}
	}
	return listings
}

func testConfig() config.ScrapeConfig {
	return config.ScrapeConfig{
		DefaultMaxPages: 10,
		UntilMaxPages:   100,
		PageDelay:       time.Millisecond,
		PageJitter:      time.Millisecond,
	}
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	day := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: soldOn(day, 3), OK: true},
		2: {Listings: soldOn(day, 2), OK: true},
		3: {Listings: []models.SaleListing{}, OK: true},
	}}

	run := NewController(fetcher, testConfig()).Run(context.Background(), RunOptions{Term: "charizard"})

	assert.Equal(t, models.StopEmptyPage, run.StopReason)
	assert.Equal(t, 3, run.PagesDone)
	assert.Len(t, run.Listings, 5)
	assert.Len(t, fetcher.queries, 3)
	assert.NotEmpty(t, run.ID)
}

func TestRunStopsAtMaxPages(t *testing.T) {
	day := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: soldOn(day, 2), OK: true},
		2: {Listings: soldOn(day, 2), OK: true},
		3: {Listings: soldOn(day, 2), OK: true},
	}}

	run := NewController(fetcher, testConfig()).Run(context.Background(), RunOptions{
		Term:     "charizard",
		MaxPages: 2,
	})

	assert.Equal(t, models.StopMaxPages, run.StopReason)
	assert.Equal(t, 2, run.PagesDone)
	assert.Len(t, run.Listings, 4)
	assert.Len(t, fetcher.queries, 2)
}

func TestRunStopsOnUntilDate(t *testing.T) {
	recent := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	old := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: soldOn(recent, 2), OK: true},
		2: {Listings: soldOn(recent, 2), OK: true},
		3: {Listings: soldOn(recent, 2), OK: true},
		4: {Listings: append(soldOn(recent, 1), soldOn(old, 1)...), OK: true},
		5: {Listings: soldOn(recent, 2), OK: true},
	}}

	run := NewController(fetcher, testConfig()).Run(context.Background(), RunOptions{
		Term:  "charizard",
		Until: &until,
	})

	assert.Equal(t, models.StopUntilDate, run.StopReason)
	assert.Equal(t, 4, run.PagesDone)
	// The boundary-crossing page's listings are kept.
	assert.Len(t, run.Listings, 8)
}

func TestRunUntilDateIsExclusive(t *testing.T) {
	until := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	// Listings sold exactly on the boundary do not trigger the stop.
	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: soldOn(until, 2), OK: true},
		2: {Listings: []models.SaleListing{}, OK: true},
	}}

	run := NewController(fetcher, testConfig()).Run(context.Background(), RunOptions{
		Term:  "charizard",
		Until: &until,
	})

	assert.Equal(t, models.StopEmptyPage, run.StopReason)
	assert.Equal(t, 2, run.PagesDone)
}

func TestRunStopsOnFetchError(t *testing.T) {
	day := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: soldOn(day, 2), OK: true},
		2: {Listings: []models.SaleListing{}, OK: false},
	}}

	run := NewController(fetcher, testConfig()).Run(context.Background(), RunOptions{Term: "charizard"})

	assert.Equal(t, models.StopError, run.StopReason)
	assert.Equal(t, 2, run.PagesDone)
	assert.Len(t, run.Listings, 2)
}

func TestRunDefaultPageCaps(t *testing.T) {
	day := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.DefaultMaxPages = 3

	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: soldOn(day, 1), OK: true},
		2: {Listings: soldOn(day, 1), OK: true},
		3: {Listings: soldOn(day, 1), OK: true},
		4: {Listings: soldOn(day, 1), OK: true},
	}}

	run := NewController(fetcher, cfg).Run(context.Background(), RunOptions{Term: "charizard"})

	assert.Equal(t, models.StopMaxPages, run.StopReason)
	assert.Equal(t, 3, run.PagesDone)
}

func TestRunPassesGradeThrough(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: []models.SaleListing{}, OK: true},
	}}

	NewController(fetcher, testConfig()).Run(context.Background(), RunOptions{
		Term:  "charizard",
		Grade: "10",
	})

	require.Len(t, fetcher.queries, 1)
	assert.Equal(t, "10", fetcher.queries[0].Grade)
	assert.Equal(t, 1, fetcher.queries[0].Page)
}

func TestRunCountsListingsOnLastFullDay(t *testing.T) {
	now := time.Date(2025, time.January, 10, 15, 30, 0, 0, time.UTC)
	yesterday := time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)

	listings := append(soldOn(yesterday, 2), soldOn(older, 3)...)
	listings = append(listings, soldOn(today, 1)...)

	fetcher := &scriptedFetcher{pages: map[int]models.ScrapePage{
		1: {Listings: listings, OK: true},
		2: {Listings: []models.SaleListing{}, OK: true},
	}}

	ctrl := NewController(fetcher, testConfig())
	ctrl.now = func() time.Time { return now }
	run := ctrl.Run(context.Background(), RunOptions{Term: "charizard"})

	// Only the sales from yesterday's full UTC day count.
	assert.Equal(t, 2, run.NumOnDay)
	assert.Len(t, run.Listings, 6)
}
