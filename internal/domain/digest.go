package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Variant selects the pipeline flavor: the frequent daily digest or the
// novelty-focused frontier digest.
type Variant string

// Pipeline variants.
const (
	VariantDaily    Variant = "daily"
	VariantFrontier Variant = "frontier"
)

// ParseVariant parses a pipeline variant from its string form.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(VariantDaily):
		return VariantDaily, nil
	case string(VariantFrontier):
		return VariantFrontier, nil
	default:
		return "", fmt.Errorf("unrecognized pipeline variant %q: %w", s, ErrInvalidInput)
	}
}

// RunStatus tracks a digest run's lifecycle.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// DigestRun records one execution of the pipeline for audit and
// reproducibility. Query holds the literal search string sent to the paper
// source so a run's candidate set can be reconstructed.
type DigestRun struct {
	ID             uuid.UUID
	Variant        Variant
	Preset         string
	Query          string
	DaysBack       int
	Status         RunStatus
	PapersFetched  int
	PapersScored   int
	PapersPublished int
	Error          string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// DigestResult is the pipeline's output handed to presentation and export:
// the ranked papers that passed the threshold, capped at the variant's
// top-N, plus the run record they belong to.
type DigestResult struct {
	Run    DigestRun
	Papers []RankedPaper
}
