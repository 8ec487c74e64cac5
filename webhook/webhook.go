// Package webhook posts scrape-run lifecycle events to a configured
// endpoint so downstream consumers (price alerting, portfolio refresh)
// learn about new data without polling the datastore.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/J3698/tcg/models"
)

// Event types delivered to the endpoint.
const (
	EventRunCompleted   = "run.completed"
	EventRunFailed      = "run.failed"
	EventBatchCompleted = "batch.completed"
)

// Event is the payload posted to the webhook endpoint.
type Event struct {
	Type      string      `json:"type"`
	ScrapeID  string      `json:"scrape_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RunData summarizes one finished pagination run.
type RunData struct {
	Term       string            `json:"term"`
	StopReason models.StopReason `json:"stop_reason,omitempty"`
	NumResults int               `json:"num_results"`
	NumOnDay   int               `json:"num_on_day"`
	Error      string            `json:"error,omitempty"`
}

// BatchData summarizes one finished batch of runs.
type BatchData struct {
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Errors     int    `json:"errors"`
	UntilDate  string `json:"until_date"`
}

// Notifier delivers events to one configured endpoint. The zero value
// is disabled; all notify methods are no-ops then.
type Notifier struct {
	URL    string
	Secret string
}

// Enabled reports whether an endpoint is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.URL != ""
}

// RunCompleted notifies about a successfully persisted run.
func (n *Notifier) RunCompleted(run *models.ScrapeRun) {
	if !n.Enabled() {
		return
	}
	DeliverAsync(n.URL, n.Secret, &Event{
		Type:      EventRunCompleted,
		ScrapeID:  run.ID,
		Timestamp: time.Now().Unix(),
		Data: RunData{
			Term:       run.Term,
			StopReason: run.StopReason,
			NumResults: len(run.Listings),
			NumOnDay:   run.NumOnDay,
		},
	})
}

// RunFailed notifies about a run that ended in an error.
func (n *Notifier) RunFailed(term, errMsg string) {
	if !n.Enabled() {
		return
	}
	DeliverAsync(n.URL, n.Secret, &Event{
		Type:      EventRunFailed,
		Timestamp: time.Now().Unix(),
		Data:      RunData{Term: term, Error: errMsg},
	})
}

// BatchCompleted notifies about a finished batch fan-out.
func (n *Notifier) BatchCompleted(data BatchData) {
	if !n.Enabled() {
		return
	}
	DeliverAsync(n.URL, n.Secret, &Event{
		Type:      EventBatchCompleted,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-TCG-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TCG-Webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-TCG-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event asynchronously with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func DeliverAsync(url, secret string, event *Event) {
	go func() {
		delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"scrape_id", event.ScrapeID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"scrape_id", event.ScrapeID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"scrape_id", event.ScrapeID,
		)
	}()
}
