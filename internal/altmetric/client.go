// Package altmetric provides a client for the Altmetric attention API.
//
// Altmetric tracks social and news attention per DOI. The digest uses the
// attention score as a ranking tie-breaker, so missing data is never an
// error: papers without a DOI or without an Altmetric record get zeros.
package altmetric

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/papersources"
)

const (
	// DefaultBaseURL is the public Altmetric API base URL.
	DefaultBaseURL = "https://api.altmetric.com/v1"

	// DefaultRateLimit is the default rate limit (1 request per second,
	// the free-tier allowance).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// Attention holds the attention signals for one paper.
type Attention struct {
	Score    float64 `json:"score"`
	Tweeters int     `json:"tweeters"`
	News     int     `json:"news"`
}

// doiResponse is the subset of the Altmetric DOI response the digest uses.
type doiResponse struct {
	Score                float64 `json:"score"`
	CitedByTweetersCount int     `json:"cited_by_tweeters_count"`
	CitedByMSMCount      int     `json:"cited_by_msm_count"`
}

// Config holds configuration for the Altmetric client.
type Config struct {
	// BaseURL is the Altmetric API base URL.
	BaseURL string

	// APIKey is an optional Altmetric API key for higher rate limits.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether enrichment is enabled. When false,
	// AttentionByDOI returns zeros without calling the API.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client fetches attention data from the Altmetric API.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// New creates a new Altmetric client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "Helixir-LiteratureDigest/1.0",
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Altmetric client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// IsEnabled reports whether the client will call the API.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// AttentionByDOI fetches the attention record for a DOI. A missing record
// (404) or an empty DOI returns zeros rather than an error; only transport
// failures and unexpected statuses are reported.
func (c *Client) AttentionByDOI(ctx context.Context, doi string) (Attention, error) {
	var zero Attention

	doi = strings.TrimSpace(doi)
	if doi == "" || !c.config.Enabled {
		return zero, nil
	}

	reqURL := strings.TrimRight(c.config.BaseURL, "/") + "/doi/" + url.PathEscape(doi)
	if c.config.APIKey != "" {
		reqURL += "?key=" + url.QueryEscape(c.config.APIKey)
	}

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return zero, fmt.Errorf("altmetric request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		// No Altmetric record exists for this DOI.
		return zero, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return zero, domain.NewExternalAPIError("Altmetric", resp.StatusCode, string(body), nil)
	}

	var doiResp doiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doiResp); err != nil {
		return zero, fmt.Errorf("decoding altmetric response: %w", err)
	}

	return Attention{
		Score:    doiResp.Score,
		Tweeters: doiResp.CitedByTweetersCount,
		News:     doiResp.CitedByMSMCount,
	}, nil
}

// Enrich populates the Altmetric fields on the paper in place. Lookup
// failures leave the paper at zeros and are returned for logging; the
// pipeline treats them as soft errors.
func (c *Client) Enrich(ctx context.Context, paper *domain.Paper) error {
	attention, err := c.AttentionByDOI(ctx, paper.DOI)
	if err != nil {
		return err
	}

	paper.AltmetricScore = attention.Score
	paper.AltmetricTweeters = attention.Tweeters
	paper.AltmetricNews = attention.News
	return nil
}
