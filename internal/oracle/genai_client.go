// internal/oracle/genai_client.go
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "autoease/internal/common/http"
)

var ErrGenerationFailed = errors.New("GENERATION_FAILED")

type GenAIConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// GenAIClient calls the internal text generation endpoint
// POST {base}/api/ai/generate.
type GenAIClient struct {
	config GenAIConfig
	client *commonhttp.Client
}

func NewGenAIClient(cfg GenAIConfig) *GenAIClient {
	client := commonhttp.NewClient(cfg.Timeout)
	if cfg.APIKey != "" {
		client = client.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &GenAIClient{
		config: cfg,
		client: client,
	}
}

func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + "/api/ai/generate"

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, lastErr = c.client.PostJSON(ctx, url, requestBody)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			status := resp.StatusCode
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", status)
			resp = nil
			if !retryableStatus(status) {
				break
			}
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrGenerationFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrGenerationFailed, err)
	}

	return apiResponse.Text, nil
}

// retryableStatus reports whether a retry can change the outcome.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
