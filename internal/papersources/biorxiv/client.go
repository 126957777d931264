// Package biorxiv provides a client for the bioRxiv/medRxiv details API.
//
// The details API has no server-side text search: it returns every preprint
// posted in a date window, paged by cursor. The client fetches the window
// and filters locally against the plain-text terms in SearchParams.Terms,
// matching case-insensitively on title and abstract.
package biorxiv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default bioRxiv details API base URL. The same
	// host serves both the biorxiv and medrxiv servers.
	DefaultBaseURL = "https://api.biorxiv.org/details"

	// DefaultRateLimit is the default rate limit (2 requests per second).
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum matching preprints returned.
	DefaultMaxResults = 50

	// DefaultDaysBack is the date window applied when SearchParams.Since is
	// nil. Preprints are only useful to the digest while they are fresh.
	DefaultDaysBack = 14

	// pageSize is the fixed page size of the details API.
	pageSize = 100

	// maxPages bounds a single search; busy windows on bioRxiv can run to
	// thousands of records.
	maxPages = 30
)

// Config holds configuration for the bioRxiv/medRxiv client.
type Config struct {
	// BaseURL is the details API base URL.
	BaseURL string

	// Server selects the preprint server: "biorxiv" or "medrxiv".
	Server string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum matching preprints to return per search.
	MaxResults int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Server == "" {
		c.Server = domain.SourceBioRxiv
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
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.PaperSource interface for the
// bioRxiv and medRxiv preprint servers.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Compile-time check that Client implements PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new bioRxiv/medRxiv client with the given configuration.
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

// NewWithHTTPClient creates a new bioRxiv/medRxiv client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search pages through the date window and returns preprints whose title or
// abstract contains at least one of params.Terms. params.Query is ignored;
// the details API cannot evaluate boolean queries.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("%s source is disabled", c.config.Server)
	}
	if len(params.Terms) == 0 {
		return nil, errors.New("preprint search requires at least one term")
	}

	startTime := time.Now()

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -DefaultDaysBack)
	if params.Since != nil {
		startDate = params.Since.UTC()
	}

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}

	terms := lowerTerms(params.Terms)

	var (
		papers     []*domain.Paper
		totalCount int
	)

	for page := 0; page < maxPages; page++ {
		cursor := page * pageSize

		detailsResp, err := c.fetchPage(ctx, startDate, endDate, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetching page at cursor %d: %w", cursor, err)
		}

		if len(detailsResp.Messages) == 0 || len(detailsResp.Collection) == 0 {
			break
		}
		totalCount = detailsResp.Messages[0].Total

		for i := range detailsResp.Collection {
			preprint := &detailsResp.Collection[i]
			if !matchesTerms(preprint, terms) {
				continue
			}
			if paper := c.preprintToPaper(preprint); paper != nil {
				papers = append(papers, paper)
			}
			if len(papers) >= maxResults {
				break
			}
		}

		if len(papers) >= maxResults || cursor+pageSize >= totalCount {
			break
		}
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   totalCount,
		Source:         c.sourceLabel(),
		SearchDuration: time.Since(startTime),
	}, nil
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	if strings.EqualFold(c.config.Server, domain.SourceMedRxiv) {
		return "medRxiv"
	}
	return "bioRxiv"
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// fetchPage retrieves one details page for the date window.
// URL shape: {base}/{server}/{from}/{to}/{cursor}
func (c *Client) fetchPage(ctx context.Context, from, to time.Time, cursor int) (*DetailsResponse, error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%d",
		strings.TrimRight(c.config.BaseURL, "/"),
		strings.ToLower(c.config.Server),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		cursor,
	)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(c.Name(), resp.StatusCode, string(body), nil)
	}

	var detailsResp DetailsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&detailsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &detailsResp, nil
}

// sourceLabel returns the domain source label for this client's server.
func (c *Client) sourceLabel() string {
	if strings.EqualFold(c.config.Server, domain.SourceMedRxiv) {
		return domain.SourceMedRxiv
	}
	return domain.SourceBioRxiv
}

// preprintToPaper converts a details API record to a domain Paper.
func (c *Client) preprintToPaper(preprint *Preprint) *domain.Paper {
	doi := strings.TrimSpace(preprint.DOI)
	if doi == "" {
		return nil
	}

	var pubDate *time.Time
	if preprint.Date != "" {
		if t, err := time.Parse("2006-01-02", preprint.Date); err == nil {
			pubDate = &t
		}
	}

	return &domain.Paper{
		DOI:             doi,
		Title:           strings.TrimSpace(preprint.Title),
		Abstract:        strings.TrimSpace(preprint.Abstract),
		Authors:         parseAuthorString(preprint.Authors),
		Journal:         c.Name() + " (Preprint)",
		PublicationDate: pubDate,
		URL:             "https://doi.org/" + doi,
		Source:          c.sourceLabel(),
	}
}

// matchesTerms reports whether any lowercase term occurs in the preprint's
// title or abstract.
func matchesTerms(preprint *Preprint, terms []string) bool {
	title := strings.ToLower(preprint.Title)
	abstract := strings.ToLower(preprint.Abstract)
	for _, term := range terms {
		if strings.Contains(title, term) || strings.Contains(abstract, term) {
			return true
		}
	}
	return false
}

// lowerTerms lowercases the match terms once, dropping blanks.
func lowerTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}

// parseAuthorString parses the details API authors field.
// The format is "Surname, G.; Surname, G." with authors separated by
// semicolons.
func parseAuthorString(authorString string) []domain.Author {
	authorString = strings.TrimSpace(authorString)
	if authorString == "" {
		return nil
	}

	parts := strings.Split(authorString, ";")
	authors := make([]domain.Author, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{Name: name})
	}

	return authors
}
