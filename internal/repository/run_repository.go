package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// RunRepository handles digest run persistence and lifecycle management.
// A run is created when the pipeline starts, annotated with its published
// papers, and closed as completed or failed.
type RunRepository interface {
	// CreateRun inserts a new digest run in the running state.
	// The run must have a valid variant; a nil ID is assigned on insert.
	// Returns domain.ErrAlreadyExists if a run with the same ID exists.
	CreateRun(ctx context.Context, run *domain.DigestRun) error

	// CompleteRun marks a run as completed and records its stage counters.
	// Returns domain.ErrNotFound if no matching run exists.
	CompleteRun(ctx context.Context, id uuid.UUID, fetched, scored, published int) error

	// FailRun marks a run as failed and records the failure cause.
	// Returns domain.ErrNotFound if no matching run exists.
	FailRun(ctx context.Context, id uuid.UUID, cause string) error

	// AddPapers attaches the run's ranked papers in digest order.
	// Position within the run follows slice order.
	// Returns domain.ErrNotFound if the run does not exist.
	AddPapers(ctx context.Context, runID uuid.UUID, papers []domain.RankedPaper) error

	// GetRun retrieves a digest run by its ID.
	// Returns domain.ErrNotFound if no matching run exists.
	GetRun(ctx context.Context, id uuid.UUID) (*domain.DigestRun, error)

	// ListRuns retrieves digest runs matching the filter criteria, newest
	// first. Returns the matching runs and total count for pagination.
	ListRuns(ctx context.Context, filter RunFilter) ([]*domain.DigestRun, int64, error)

	// ListRunPapers retrieves a run's ranked papers in digest order.
	// Returns domain.ErrNotFound if the run does not exist.
	ListRunPapers(ctx context.Context, runID uuid.UUID) ([]domain.RankedPaper, error)

	// RecentPublishedIDs returns the canonical IDs of papers published by
	// completed runs of the given variant since the cutoff. The pipeline
	// uses this set to keep papers from reappearing in consecutive digests.
	RecentPublishedIDs(ctx context.Context, variant domain.Variant, since time.Time) (map[string]struct{}, error)
}

// RunFilter specifies criteria for listing digest runs.
type RunFilter struct {
	// Variant filters by pipeline variant (optional).
	Variant *domain.Variant

	// Status filters by run status (optional).
	Status *domain.RunStatus

	// StartedAfter filters to runs started after this timestamp (optional).
	StartedAfter *time.Time

	// StartedBefore filters to runs started before this timestamp (optional).
	StartedBefore *time.Time

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks the filter values and sets pagination defaults.
func (f *RunFilter) Validate() error {
	if f.Variant != nil {
		if _, err := domain.ParseVariant(string(*f.Variant)); err != nil {
			return domain.NewValidationError("variant", "unknown pipeline variant")
		}
	}

	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
