package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/models"
	"github.com/J3698/tcg/scrape"
	"github.com/J3698/tcg/webhook"
)

// RunSaver performs a pagination run and persists it. Satisfied by
// *scan.Orchestrator.
type RunSaver interface {
	RunAndSave(ctx context.Context, opts scrape.RunOptions) (*models.ScrapeRun, error)
}

// Run returns the handler for POST /api/v1/scrape/run: a multi-page
// pagination run for one term, persisted as a run summary plus one row
// per listing.
func Run(runner RunSaver, cfg config.ScrapeConfig, notify *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.RunResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		opts := scrape.RunOptions{
			Term:     req.Term,
			MaxPages: req.MaxPages,
			Retries:  -1,
		}

		if req.UntilDate != "" {
			until, err := time.Parse("2006-01-02", req.UntilDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.RunResponse{
					Success: false,
					Term:    req.Term,
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeInvalidInput,
						Message: "until_date must be formatted as YYYY-MM-DD",
					},
				})
				return
			}
			opts.Until = &until
		}

		// Resolve the effective cap for the response body.
		maxPages := opts.MaxPages
		if maxPages <= 0 {
			if opts.Until != nil {
				maxPages = cfg.UntilMaxPages
			} else {
				maxPages = cfg.DefaultMaxPages
			}
		}

		run, err := runner.RunAndSave(c.Request.Context(), opts)
		if err != nil {
			scanErr := asScanError(err)
			notify.RunFailed(req.Term, scanErr.Message)
			c.JSON(mapErrorToStatus(scanErr), models.RunResponse{
				Success:   false,
				Term:      req.Term,
				MaxPages:  maxPages,
				UntilDate: nilIfEmpty(req.UntilDate),
				Error:     scanErr.ToDetail(),
			})
			return
		}

		notify.RunCompleted(run)

		c.JSON(http.StatusOK, models.RunResponse{
			Success:      true,
			ScrapeID:     run.ID,
			Term:         run.Term,
			MaxPages:     maxPages,
			UntilDate:    nilIfEmpty(req.UntilDate),
			StoppedEarly: run.StopReason != models.StopMaxPages,
			StopReason:   run.StopReason,
			NumResults:   len(run.Listings),
			NumOnDay:     run.NumOnDay,
		})
	}
}
