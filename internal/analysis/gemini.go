package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/speedwagon-io/stepsmon/internal/config"
	"github.com/speedwagon-io/stepsmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/stepsmon/internal/model"
	"github.com/speedwagon-io/stepsmon/internal/telemetry"
)

// GeminiClient asks a Gemini model for a JSON answer constrained by a
// response schema. Without an API key no SDK client is built and
// HasCredential reports false.
type GeminiClient struct {
	log         *slog.Logger
	model       string
	client      *genai.Client
	maxAttempts int
	backoff     backoff
}

// NewGeminiClient builds the client. rnd jitters retry delays; nil disables
// jitter.
func NewGeminiClient(ctx context.Context, log *slog.Logger, cfg *config.GeminiConfig, rnd telemetry.Rand) (*GeminiClient, error) {
	c := &GeminiClient{
		log:         log,
		model:       cfg.Model,
		maxAttempts: max(cfg.Retry.MaxAttempts, 1),
		backoff:     newBackoff(cfg.Retry, cfg.Timeout, rnd),
	}
	if cfg.APIKey == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.client = client

	return c, nil
}

func (c *GeminiClient) Name() string {
	return "gemini"
}

func (c *GeminiClient) HasCredential() bool {
	return c.client != nil
}

func summarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
			"hazardLevel": {
				Type: genai.TypeString,
				Enum: []string{string(model.HazardLow), string(model.HazardModerate), string(model.HazardHigh)},
			},
		},
		Required: []string{"summary", "hazardLevel"},
	}
}

func (c *GeminiClient) Summarize(ctx context.Context, samples []model.Sample) (Summary, error) {
	if c.client == nil {
		return Summary{}, fmt.Errorf("gemini client has no api key")
	}
	if len(samples) == 0 {
		return Summary{}, ErrEmptyWindow
	}

	contents := genai.Text(BuildPrompt(samples))
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   summarySchema(),
	}

	text, err := c.generateWithRetry(ctx, contents, genCfg)
	if err != nil {
		return Summary{}, err
	}

	return ParseSummary(text)
}

func (c *GeminiClient) generateWithRetry(ctx context.Context, contents []*genai.Content, genCfg *genai.GenerateContentConfig) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
		if err == nil {
			return resp.Text(), nil
		}

		lastErr = err
		c.log.Warn("generate attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.maxAttempts),
			sl.Err(err),
		)

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.backoff.delay(attempt - 1)):
			}
		}
	}

	return "", fmt.Errorf("all %d attempts failed: %w", c.maxAttempts, lastErr)
}

// ParseSummary decodes the model's JSON answer and rejects hazard levels the
// schema does not allow.
func ParseSummary(text string) (Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Summary{}, ErrEmptyResponse
	}

	var s Summary
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if !s.HazardLevel.Assessed() {
		return Summary{}, fmt.Errorf("%w: %q", ErrInvalidHazard, s.HazardLevel)
	}
	return s, nil
}
