package rss

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-digest-service/internal/papersources"
)

// Reader defaults.
const (
	defaultReaderTimeout = 30 * time.Second
	defaultReaderAgent   = "Helixir-LiteratureDigest/1.0"

	// maxFeedBytes bounds how much of a feed response is read.
	maxFeedBytes = 10 << 20
)

// ReaderConfig configures the feed reader.
type ReaderConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// UserAgent is sent with feed requests; some hosts block default agents.
	UserAgent string
	// RateLimit is the maximum requests per second across all feeds.
	RateLimit float64
}

func (c *ReaderConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultReaderTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultReaderAgent
	}
	if c.RateLimit == 0 {
		c.RateLimit = 2
	}
}

// Reader fetches and parses RSS and Atom feeds.
type Reader struct {
	httpClient *papersources.HTTPClient
	logger     zerolog.Logger
}

// NewReader creates a feed reader backed by the shared rate-limited HTTP
// client.
func NewReader(cfg ReaderConfig, logger zerolog.Logger) *Reader {
	cfg.applyDefaults()
	return &Reader{
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: 1,
			UserAgent: cfg.UserAgent,
		}),
		logger: logger.With().Str("component", "rss_reader").Logger(),
	}
}

// NewReaderWithHTTPClient creates a reader around an existing HTTP client.
// Used for testing.
func NewReaderWithHTTPClient(httpClient *papersources.HTTPClient, logger zerolog.Logger) *Reader {
	return &Reader{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "rss_reader").Logger(),
	}
}

// Fetch retrieves and parses a single feed.
func (r *Reader) Fetch(ctx context.Context, feed Feed) ([]Item, error) {
	resp, err := r.httpClient.Get(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("feed %s returned status %d", feed.Name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", feed.Name, err)
	}

	return parseFeed(data, feed)
}

// FetchAll retrieves every feed and returns items published since the
// cutoff, newest first. Items without a publication time are kept and sort
// last. A feed that fails to fetch or parse is logged and skipped so one
// broken source does not sink the roundup.
func (r *Reader) FetchAll(ctx context.Context, feeds []Feed, since time.Time) []Item {
	var all []Item

	for _, feed := range feeds {
		items, err := r.Fetch(ctx, feed)
		if err != nil {
			r.logger.Warn().Err(err).Str("feed", feed.Name).Msg("skipping feed")
			continue
		}

		kept := 0
		for _, item := range items {
			if item.Published != nil && item.Published.Before(since) {
				continue
			}
			all = append(all, item)
			kept++
		}

		r.logger.Debug().
			Str("feed", feed.Name).
			Int("items", len(items)).
			Int("recent", kept).
			Msg("feed fetched")
	}

	sort.SliceStable(all, func(i, j int) bool {
		return itemTime(all[i]).After(itemTime(all[j]))
	})

	return all
}

// itemTime treats a missing publication time as zero so undated items sort
// last.
func itemTime(item Item) time.Time {
	if item.Published == nil {
		return time.Time{}
	}
	return *item.Published
}
