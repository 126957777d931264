package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/papersources"
)

// Default Slack poster settings.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 1.0
)

// SlackConfig configures the Slack webhook poster.
type SlackConfig struct {
	// WebhookURL is the Slack incoming webhook endpoint.
	WebhookURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether posting is active. When false all post
	// calls are no-ops.
	Enabled bool
}

// applyDefaults fills in zero values with defaults.
func (c *SlackConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = 1
	}
}

// SlackPoster delivers digests to a Slack channel via incoming webhook.
type SlackPoster struct {
	config     SlackConfig
	httpClient *papersources.HTTPClient
}

// NewSlackPoster creates a new Slack webhook poster.
func NewSlackPoster(cfg SlackConfig) *SlackPoster {
	cfg.applyDefaults()
	return &SlackPoster{
		config: cfg,
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
	}
}

// NewSlackPosterWithHTTPClient creates a poster with a custom HTTP client.
// Used for testing.
func NewSlackPosterWithHTTPClient(cfg SlackConfig, httpClient *papersources.HTTPClient) *SlackPoster {
	cfg.applyDefaults()
	return &SlackPoster{config: cfg, httpClient: httpClient}
}

// Enabled reports whether the poster will deliver messages.
func (p *SlackPoster) Enabled() bool {
	return p.config.Enabled && p.config.WebhookURL != ""
}

// PostDigest posts the ranked digest to the configured channel.
func (p *SlackPoster) PostDigest(ctx context.Context, result *domain.DigestResult) error {
	if result == nil {
		return domain.NewValidationError("result", "digest result cannot be nil")
	}
	return p.post(ctx, buildDigestMessage(result))
}

// PostNoPapers posts a notice that no papers met the threshold.
func (p *SlackPoster) PostNoPapers(ctx context.Context, variant domain.Variant, days int) error {
	return p.post(ctx, buildNoPapersMessage(variant, days))
}

// PostError posts a run-failure notice.
func (p *SlackPoster) PostError(ctx context.Context, variant domain.Variant, cause string) error {
	return p.post(ctx, buildErrorMessage(variant, cause))
}

// post sends a Block Kit payload to the webhook. A non-2xx reply is an
// ExternalAPIError; Slack webhooks return a plain "ok" body on success.
func (p *SlackPoster) post(ctx context.Context, msg slackMessage) error {
	if !p.Enabled() {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NewExternalAPIError("Slack", resp.StatusCode, string(detail), nil)
	}

	return nil
}
