// Package vision reads the certification number off a graded-card photo
// using an OpenAI-compatible vision chat API. It uses net/http directly,
// no third-party SDK needed.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/J3698/tcg/config"
	"github.com/J3698/tcg/models"
)

const certPrompt = "This is an image of a PSA graded trading card. Please extract ONLY the certification number from the image. The cert number is typically a long number displayed on the PSA label. Return ONLY the number, nothing else."

var reCertNumber = regexp.MustCompile(`^\d+$`)

// Client calls the vision API. No retry at this layer: failures
// propagate so the scan can attribute them to the vision stage.
type Client struct {
	cfg        config.VisionConfig
	httpClient *http.Client
}

// NewClient creates a vision client. Pass nil to use a default http.Client.
func NewClient(cfg config.VisionConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// chatRequest is the chat completion request body with image content parts.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the minimal chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractCertNumber sends the card photo to the vision model and returns
// the certification number printed on its label.
func (c *Client) ExtractCertNumber(ctx context.Context, photoURL string) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: certPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: photoURL}},
				},
			},
		},
		MaxTokens: 300,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewScanError(models.ErrCodeVision, models.StageVision, "vision request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewScanError(models.ErrCodeVision, models.StageVision, "failed to read vision response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", models.NewScanError(models.ErrCodeVision, models.StageVision,
			fmt.Sprintf("vision API returned %d", resp.StatusCode), nil)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewScanError(models.ErrCodeVision, models.StageVision, "failed to parse vision response", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", models.NewScanError(models.ErrCodeVision, models.StageVision, "vision API returned no choices", nil)
	}

	certNumber := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if !reCertNumber.MatchString(certNumber) {
		return "", models.NewScanError(models.ErrCodeVision, models.StageVision,
			fmt.Sprintf("unusable cert number in vision response: %q", certNumber), nil)
	}

	return certNumber, nil
}
