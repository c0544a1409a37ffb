// Package search finds product candidates through the Perplexity answer
// engine.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/metrics"
	"github.com/ernaz100/redmerce/internal/validator"
)

const promptTemplate = `Find the 3-5 best products for: %s. Ideally these products should be available in Germany.

Return a JSON array where each item has:
- 'name' (full product name with brand)
- 'brand'
- 'description'
- 'features' (array of key features)

Focus on finding high-quality, well-reviewed products with clear, searchable product names. Make sure product names are detailed enough to find in shopping searches.

Return only the JSON array, no additional text.`

// Client calls the Perplexity chat completions endpoint.
type Client struct {
	api    *openai.Client
	cfg    config.PerplexityConfig
	logger logger.Logger
}

// NewClient builds a Client. A missing key disables network calls.
func NewClient(cfg config.PerplexityConfig, log logger.Logger) *Client {
	c := &Client{cfg: cfg, logger: log}
	if cfg.APIKey == "" {
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	c.api = openai.NewClientWithConfig(oc)
	return c
}

// FindProducts asks the answer engine for product candidates matching query
// and returns the raw message content.
func (c *Client) FindProducts(ctx context.Context, query string) string {
	if c.api == nil {
		return errorJSON("Perplexity API key not configured")
	}

	query = validator.SanitizeQuery(query)
	start := time.Now()
	log := c.logger.With(map[string]interface{}{"query": query})
	log.Info("Searching for products", nil)

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, query)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		metrics.ObserveTool(metrics.ToolSearch, metrics.OutcomeDegraded, start)
		if status, ok := httpStatus(err); ok {
			log.Warn("Search request rejected", map[string]interface{}{"status": status})
			return errorJSON(fmt.Sprintf("Search failed with status %d", status))
		}
		log.WithError(err).Error("Search request failed", nil)
		return errorJSON(fmt.Sprintf("Search error: %v", err))
	}
	if len(resp.Choices) == 0 {
		metrics.ObserveTool(metrics.ToolSearch, metrics.OutcomeDegraded, start)
		return errorJSON("Search error: response contained no choices")
	}

	metrics.ObserveTool(metrics.ToolSearch, metrics.OutcomeOK, start)
	log.Debug("Search completed", map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})
	return resp.Choices[0].Message.Content
}

// httpStatus extracts the status code of a non-2xx reply.
func httpStatus(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

func errorJSON(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
