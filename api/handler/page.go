package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/J3698/tcg/ebay"
	"github.com/J3698/tcg/models"
)

// PageFetcher fetches and parses one results page. Satisfied by
// *ebay.Fetcher.
type PageFetcher interface {
	FetchPage(ctx context.Context, q ebay.SearchQuery, retries int) models.ScrapePage
}

// Page returns the handler for POST /api/v1/scrape/page: a single-page
// fetch with bounded retry. Success mirrors the fetch's own ok flag:
// an empty result with success=false means blocked/failed, not "no
// more listings".
func Page(fetcher PageFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.PageResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		retries := -1
		if req.MaxRetries != nil {
			retries = *req.MaxRetries
		}

		page := fetcher.FetchPage(c.Request.Context(), ebay.SearchQuery{
			Term: req.Term,
			Page: req.Page,
		}, retries)

		resp := models.PageResponse{
			Success:    page.OK,
			Term:       req.Term,
			Page:       req.Page,
			NumResults: len(page.Listings),
			Listings:   serializeListings(page.Listings),
		}
		if !page.OK {
			resp.Error = &models.ErrorDetail{
				Code:    models.ErrCodeScrape,
				Stage:   models.StageScrape,
				Message: "page fetch failed after exhausting retries",
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// serializeListings converts listings to their wire form, with dates as
// ISO-8601 strings.
func serializeListings(listings []models.SaleListing) []models.PageListing {
	out := make([]models.PageListing, 0, len(listings))
	for _, l := range listings {
		date := l.SoldAt.Format(time.RFC3339)
		out = append(out, models.PageListing{
			Title:           l.Title,
			NormalizedTitle: l.NormalizedTitle,
			SellDate:        &date,
			SellPrice:       l.Price,
			AuthGuarantee:   l.AuthGuarantee,
			Vaulted:         l.Vaulted,
			URL:             nilIfEmpty(l.URL),
			Image:           nilIfEmpty(l.ImageURL),
		})
	}
	return out
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
