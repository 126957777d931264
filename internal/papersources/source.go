package papersources

import (
	"context"
	"time"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// SearchParams defines the parameters for fetching candidate papers.
type SearchParams struct {
	// Query is the boolean search string built by the query package.
	// Sources without server-side search (the preprint servers) ignore it
	// and filter locally on Terms instead.
	Query string

	// Terms are plain-text match terms for sources that filter locally.
	Terms []string

	// Since restricts results to papers published on or after this time.
	// Nil applies no lower bound.
	Since *time.Time

	// MaxResults caps the number of papers returned. Zero uses the
	// source's default.
	MaxResults int
}

// SearchResult contains the papers returned by one source search.
type SearchResult struct {
	// Papers may be empty when nothing matched.
	Papers []*domain.Paper

	// TotalResults is the source-reported total match count, which may be
	// an estimate and exceed len(Papers).
	TotalResults int

	// Source identifies which paper source produced the results.
	Source string

	// SearchDuration is the elapsed search time including network latency
	// and parsing.
	SearchDuration time.Duration
}

// PaperSource is implemented by every literature API client. The pipeline
// fans out over the enabled sources for a run and merges their results.
type PaperSource interface {
	// Search queries the source for papers matching the given parameters.
	// Implementations respect context cancellation, apply their own rate
	// limiting, and transform source responses into domain.Paper records.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// Name returns the source label used for logging and metrics.
	Name() string

	// IsEnabled reports whether the source is configured and available.
	IsEnabled() bool
}
