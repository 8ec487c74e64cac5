package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/models"
	"github.com/J3698/tcg/scrape"
	"github.com/J3698/tcg/webhook"
)

// Batch returns the handler for POST /api/v1/scrape/batch: one
// pagination run per candidate term, all launched at once and joined at
// a single barrier, with concurrency bounded by the configured fan-out.
// The until boundary is a fixed offset before today so each run only
// reaches back to the last day already scraped.
func Batch(runner RunSaver, cfg config.BatchConfig, notify *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		limit := req.Limit
		if limit <= 0 {
			limit = cfg.Limit
		}
		terms := cfg.Terms
		if len(terms) > limit {
			terms = terms[:limit]
		}

		today := midnightUTC(time.Now())
		until := today.AddDate(0, 0, -cfg.UntilOffsetDays)

		results := make([]models.BatchTermResult, len(terms))

		g := new(errgroup.Group)
		g.SetLimit(cfg.Concurrency)
		for i, term := range terms {
			g.Go(func() error {
				run, err := runner.RunAndSave(c.Request.Context(), scrape.RunOptions{
					Term:    term,
					Until:   &until,
					Retries: -1,
				})
				if err != nil {
					results[i] = models.BatchTermResult{
						Term:    term,
						Success: false,
						Error:   err.Error(),
					}
					return nil
				}
				results[i] = models.BatchTermResult{
					Term:       term,
					Success:    true,
					ScrapeID:   run.ID,
					NumResults: len(run.Listings),
					NumOnDay:   run.NumOnDay,
				}
				return nil
			})
		}
		_ = g.Wait()

		successful := 0
		for _, r := range results {
			if r.Success {
				successful++
			}
		}

		untilDate := until.Format("2006-01-02")
		notify.BatchCompleted(webhook.BatchData{
			Total:      len(results),
			Successful: successful,
			Errors:     len(results) - successful,
			UntilDate:  untilDate,
		})

		c.JSON(http.StatusOK, models.BatchResponse{
			Success:    true,
			Total:      len(results),
			Successful: successful,
			Errors:     len(results) - successful,
			UntilDate:  untilDate,
			Results:    results,
		})
	}
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
