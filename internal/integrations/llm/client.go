// Package llm is the external second-opinion classifier used by the analysis
// engine.
package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"complaintqa/internal/config"
	"complaintqa/internal/domain"
)

const defaultRetryBackoff = 500 * time.Millisecond

// Client classifies complaints with the configured provider. Safe for
// concurrent use; requests are paced by a shared limiter.
type Client struct {
	provider     string
	model        string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	complete     completionFunc
	systemPrompt string
}

// New builds a client from cfg. ok is false when the selected provider has no
// credential, in which case analysis runs rule-based only.
func New(cfg config.Config) (c *Client, ok bool) {
	if !cfg.LLMConfigured() {
		return nil, false
	}
	c = &Client{
		provider:     cfg.LLMProvider,
		model:        cfg.LLMModel,
		maxRetries:   cfg.LLMMaxRetries,
		retryBackoff: defaultRetryBackoff,
		systemPrompt: buildSystemPrompt(),
	}
	rpm := cfg.LLMRequestsPerMinute
	if rpm < 1 {
		rpm = 60
	}
	burst := rpm / 60
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)

	switch cfg.LLMProvider {
	case "openai":
		if c.model == "" {
			c.model = defaultOpenAIModel
		}
		c.complete = openAICompletion(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, c.model)
	default:
		if c.model == "" {
			c.model = defaultAnthropicModel
		}
		c.complete = anthropicCompletion(cfg.AnthropicAPIKey, c.model)
	}
	return c, true
}

func (c *Client) Provider() string { return c.provider }
func (c *Client) Model() string    { return c.model }

// Classify asks the provider for one taxonomy label. A response without a
// valid CATEGORY line yields domain.LLMUnavailable and no error.
func (c *Client) Classify(ctx context.Context, complaint domain.ComplaintRecord, notes []domain.TechnicalNote) (domain.Prediction, error) {
	pred := domain.Prediction{Category: domain.LLMUnavailable, Provider: c.provider, Model: c.model}
	userPrompt := buildUserPrompt(complaint, notes)

	log.Printf("llm classify provider=%s model=%s complaint=%d notes=%d", c.provider, c.model, complaint.ID, len(notes))
	text, err := c.completeWithRetry(ctx, userPrompt)
	if err != nil {
		return pred, err
	}

	label, justification, ok := parseCategoryResponse(text)
	if !ok {
		log.Printf("llm classify unparseable response complaint=%d size=%d", complaint.ID, len(text))
		return pred, nil
	}
	pred.Category = label
	pred.Justification = justification
	return pred, nil
}

func (c *Client) completeWithRetry(ctx context.Context, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("llm classify retry attempt=%d err=%v", attempt, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryBackoff * time.Duration(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm rate limit wait: %w", err)
		}
		text, _, err := c.complete(ctx, c.systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return "", lastErr
}
