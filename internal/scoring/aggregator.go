// Package scoring combines independently-sourced paper signals into one
// rankable combined score and a pass/fail threshold decision. Everything
// here is purely functional: no I/O, no package state, safe for concurrent
// use. A paper missing a required dimension fails loudly; a silent default
// would mask upstream enrichment failures and corrupt ranking determinism.
package scoring

import (
	"github.com/helixir/literature-digest-service/internal/domain"
)

// Score dimension names used in MissingScoreError reports.
const (
	DimensionRelevance = "relevance"
	DimensionEvidence  = "evidence"
	DimensionFrontier  = "frontier"
)

// highPriorityBoost is added once when any matched topic is high priority.
const highPriorityBoost = 1

// Config is the variant-specific scoring configuration, passed explicitly
// at construction rather than read from package state.
type Config struct {
	// Threshold is the minimum combined score for publication.
	Threshold int

	// UseFrontier enables the fourth, novelty-oriented dimension.
	UseFrontier bool

	// MinFrontierScore additionally gates papers on their raw frontier
	// score when UseFrontier is set. Zero disables the gate.
	MinFrontierScore int

	// TopN caps how many passing papers a digest publishes. Zero means
	// no cap.
	TopN int
}

// Aggregator computes combined scores against a fixed topic-priority
// lookup. It holds no mutable state.
type Aggregator struct {
	cfg        Config
	priorities map[string]domain.Priority
}

// NewAggregator creates an aggregator for one pipeline run.
func NewAggregator(cfg Config, priorities map[string]domain.Priority) *Aggregator {
	return &Aggregator{cfg: cfg, priorities: priorities}
}

// PriorityBoost returns +1 when any matched topic carries the high tier,
// else 0. The always tier guarantees candidate inclusion upstream but
// grants no score boost.
func PriorityBoost(matchedTopics []string, priorities map[string]domain.Priority) int {
	for _, name := range matchedTopics {
		if priorities[name] == domain.PriorityHigh {
			return highPriorityBoost
		}
	}
	return 0
}

// CombinedScore computes relevance + evidence (+ frontier under the
// four-dimension variant) + the priority boost for the paper's matched
// topics. It fails with MissingScoreError when a required dimension has not
// been assigned.
func (a *Aggregator) CombinedScore(p *domain.Paper) (int, error) {
	if p.Relevance == nil {
		return 0, domain.NewMissingScoreError(paperKey(p), DimensionRelevance)
	}
	if p.Evidence == nil {
		return 0, domain.NewMissingScoreError(paperKey(p), DimensionEvidence)
	}

	score := *p.Relevance + *p.Evidence

	if a.cfg.UseFrontier {
		if p.Frontier == nil {
			return 0, domain.NewMissingScoreError(paperKey(p), DimensionFrontier)
		}
		score += *p.Frontier
	}

	return score + PriorityBoost(p.MatchedTopics, a.priorities), nil
}

// PassesThreshold reports whether a combined score meets the variant's bar.
func (a *Aggregator) PassesThreshold(combinedScore int) bool {
	return combinedScore >= a.cfg.Threshold
}

// Aggregate derives the ranking outputs for one paper.
func (a *Aggregator) Aggregate(p domain.Paper) (domain.RankedPaper, error) {
	score, err := a.CombinedScore(&p)
	if err != nil {
		return domain.RankedPaper{}, err
	}
	return domain.RankedPaper{
		Paper:           p,
		CombinedScore:   score,
		PassesThreshold: a.PassesThreshold(score),
	}, nil
}

// AggregateAll derives ranking outputs for a batch, failing on the first
// incompletely enriched paper.
func (a *Aggregator) AggregateAll(papers []domain.Paper) ([]domain.RankedPaper, error) {
	out := make([]domain.RankedPaper, 0, len(papers))
	for _, p := range papers {
		ranked, err := a.Aggregate(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ranked)
	}
	return out, nil
}

// Select returns the publishable subset in rank order: papers that pass the
// threshold (and the frontier gate when configured), capped at TopN. The
// input slice is not modified.
func (a *Aggregator) Select(papers []domain.RankedPaper) []domain.RankedPaper {
	var out []domain.RankedPaper
	for _, p := range papers {
		if !p.PassesThreshold {
			continue
		}
		if a.cfg.UseFrontier && a.cfg.MinFrontierScore > 0 &&
			(p.Frontier == nil || *p.Frontier < a.cfg.MinFrontierScore) {
			continue
		}
		out = append(out, p)
	}

	Rank(out)

	if a.cfg.TopN > 0 && len(out) > a.cfg.TopN {
		out = out[:a.cfg.TopN]
	}
	return out
}

// paperKey returns the identifier used in error reports.
func paperKey(p *domain.Paper) string {
	if id := p.CanonicalID(); id != "" {
		return id
	}
	return p.Title
}
