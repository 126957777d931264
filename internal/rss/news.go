package rss

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// News digest defaults, matching the daily roundup cadence.
const (
	DefaultHoursBack    = 24
	DefaultMaxItems     = 15
	DefaultSeenLookback = 90 * 24 * time.Hour
)

// Fetcher retrieves recent items from a set of feeds. Reader satisfies
// this.
type Fetcher interface {
	FetchAll(ctx context.Context, feeds []Feed, since time.Time) []Item
}

// SeenStore persists posted item GUIDs so reruns do not repost.
type SeenStore interface {
	// SeenGUIDs returns the GUIDs of items posted since the cutoff.
	SeenGUIDs(ctx context.Context, since time.Time) (map[string]struct{}, error)
	// MarkSeen records the items as posted.
	MarkSeen(ctx context.Context, items []Item) error
	// DeleteSeenBefore prunes tracking rows older than the cutoff.
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Poster delivers a news roundup. The Slack poster satisfies this.
type Poster interface {
	PostNewsRoundup(ctx context.Context, items []Item) error
}

// NewsConfig configures a news digest run.
type NewsConfig struct {
	// Feeds lists the sources to aggregate; empty uses DefaultFeeds.
	Feeds []Feed
	// HoursBack is how far back fetched items may be published.
	HoursBack int
	// MaxItems caps how many items one roundup posts.
	MaxItems int
	// SeenLookback is how far back posted items suppress reposting, and
	// the retention horizon for tracking rows.
	SeenLookback time.Duration
}

func (c *NewsConfig) applyDefaults() {
	if len(c.Feeds) == 0 {
		c.Feeds = DefaultFeeds()
	}
	if c.HoursBack <= 0 {
		c.HoursBack = DefaultHoursBack
	}
	if c.MaxItems <= 0 {
		c.MaxItems = DefaultMaxItems
	}
	if c.SeenLookback <= 0 {
		c.SeenLookback = DefaultSeenLookback
	}
}

// NewsStats summarizes one news digest run.
type NewsStats struct {
	// Fetched is the total items within the window across all feeds.
	Fetched int
	// Fresh is how many of those had not been posted before.
	Fresh int
	// Posted is how many items the roundup delivered.
	Posted int
}

// NewsDigest aggregates feed items into a Slack roundup with cross-run
// deduplication.
type NewsDigest struct {
	config  NewsConfig
	fetcher Fetcher
	seen    SeenStore
	poster  Poster
	logger  zerolog.Logger
}

// NewNewsDigest creates a news digest.
func NewNewsDigest(cfg NewsConfig, fetcher Fetcher, seen SeenStore, poster Poster, logger zerolog.Logger) *NewsDigest {
	cfg.applyDefaults()
	return &NewsDigest{
		config:  cfg,
		fetcher: fetcher,
		seen:    seen,
		poster:  poster,
		logger:  logger.With().Str("component", "news_digest").Logger(),
	}
}

// Run fetches the feeds, filters out already-posted items, posts the
// newest ones, and records them as seen. Posting nothing is a normal
// outcome, not an error.
func (d *NewsDigest) Run(ctx context.Context) (*NewsStats, error) {
	now := time.Now().UTC()
	stats := &NewsStats{}

	items := d.fetcher.FetchAll(ctx, d.config.Feeds, now.Add(-time.Duration(d.config.HoursBack)*time.Hour))
	stats.Fetched = len(items)
	if len(items) == 0 {
		d.logger.Info().Msg("no items found in feeds")
		return stats, nil
	}

	seenGUIDs, err := d.seen.SeenGUIDs(ctx, now.Add(-d.config.SeenLookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load seen items: %w", err)
	}

	fresh := FilterSeen(items, seenGUIDs)
	stats.Fresh = len(fresh)
	if len(fresh) == 0 {
		d.logger.Info().Int("fetched", stats.Fetched).Msg("no new items to post")
		return stats, nil
	}

	if len(fresh) > d.config.MaxItems {
		fresh = fresh[:d.config.MaxItems]
	}

	if err := d.poster.PostNewsRoundup(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to post news roundup: %w", err)
	}
	stats.Posted = len(fresh)

	// Items are only marked seen after a successful post, so a delivery
	// failure retries them on the next tick.
	if err := d.seen.MarkSeen(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to record posted items: %w", err)
	}

	if pruned, err := d.seen.DeleteSeenBefore(ctx, now.Add(-d.config.SeenLookback)); err != nil {
		d.logger.Warn().Err(err).Msg("failed to prune seen items")
	} else if pruned > 0 {
		d.logger.Debug().Int64("pruned", pruned).Msg("pruned old seen items")
	}

	d.logger.Info().
		Int("fetched", stats.Fetched).
		Int("fresh", stats.Fresh).
		Int("posted", stats.Posted).
		Fields(map[string]interface{}{"by_source": CountBySource(fresh)}).
		Msg("news roundup posted")

	return stats, nil
}
