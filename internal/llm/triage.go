package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// allowListBoost is added to the relevance score of papers from allow-listed
// authors, capped at the top of the scale.
const allowListBoost = 2

// Triage runs batch scoring over a full candidate set, applying the author
// allow and block lists around the LLM calls.
type Triage struct {
	scorer    Scorer
	authors   domain.AuthorLists
	batchSize int
}

// NewTriage creates a Triage around the given scorer and author lists.
func NewTriage(scorer Scorer, authors domain.AuthorLists) *Triage {
	return &Triage{
		scorer:    scorer,
		authors:   authors,
		batchSize: DefaultBatchSize,
	}
}

// ScoreAll scores every paper in batches, mutating the papers in place.
//
// Papers by block-listed authors are dropped before scoring and never reach
// the model. Papers by allow-listed authors get a relevance boost after
// scoring, capped at 10. A failed batch leaves its papers unscored and is
// reported in the joined error; scoring continues with the next batch so a
// single bad response does not sink the whole run.
func (t *Triage) ScoreAll(ctx context.Context, papers []*domain.Paper, useFrontier bool) ([]*domain.Paper, error) {
	kept := make([]*domain.Paper, 0, len(papers))
	for _, paper := range papers {
		if authorInList(paper, t.authors.Block) {
			continue
		}
		kept = append(kept, paper)
	}

	var batchErrs []error
	for start := 0; start < len(kept); start += t.batchSize {
		end := start + t.batchSize
		if end > len(kept) {
			end = len(kept)
		}
		batch := kept[start:end]

		scores, err := t.scorer.ScoreBatch(ctx, ScoreRequest{
			Papers:      batch,
			UseFrontier: useFrontier,
		})
		if err != nil {
			if ctx.Err() != nil {
				return kept, ctx.Err()
			}
			batchErrs = append(batchErrs, fmt.Errorf("batch starting at %d: %w", start, err))
			continue
		}

		applyScores(batch, scores)
	}

	// Allow-list boost applies only to papers that actually got scored.
	for _, paper := range kept {
		if paper.Relevance == nil || !authorInList(paper, t.authors.Allow) {
			continue
		}
		boosted := *paper.Relevance + allowListBoost
		if boosted > 10 {
			boosted = 10
		}
		paper.Relevance = &boosted
	}

	return kept, errors.Join(batchErrs...)
}

// applyScores copies a batch's scores onto its papers by index.
func applyScores(batch []*domain.Paper, scores []PaperScores) {
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(batch) {
			continue
		}
		paper := batch[s.Index]
		paper.Relevance = s.Relevance
		paper.Evidence = s.Evidence
		paper.Frontier = s.Frontier
	}
}

// authorInList reports whether any listed name appears among the paper's
// authors, matching by case-insensitive substring.
func authorInList(paper *domain.Paper, list []string) bool {
	if len(list) == 0 || len(paper.Authors) == 0 {
		return false
	}

	authors := strings.ToLower(strings.Join(paper.AuthorNames(), "; "))
	for _, name := range list {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && strings.Contains(authors, name) {
			return true
		}
	}
	return false
}
