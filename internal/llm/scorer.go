// Package llm provides LLM-backed triage scoring for candidate papers.
//
// Papers are scored in batches on a 0-10 scale per dimension: relevance to
// the longevity focus, evidence quality, and (for the frontier digest)
// frontier potential. Providers share a single prompt and response format
// so they are interchangeable behind the Scorer interface.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// DefaultBatchSize is the number of papers scored per API call.
const DefaultBatchSize = 10

// maxAbstractChars caps the abstract text included per paper in the prompt.
const maxAbstractChars = 1500

// ScoreRequest is one batch of papers to score.
type ScoreRequest struct {
	// Papers is the batch, at most DefaultBatchSize entries.
	Papers []*domain.Paper

	// UseFrontier requests the fourth dimension (frontier potential) used
	// by the frontier digest variant.
	UseFrontier bool
}

// PaperScores carries the dimensions assigned to one paper in a batch.
// Index refers to the paper's position in the request batch. A nil
// dimension means the model did not assign it.
type PaperScores struct {
	Index     int  `json:"index"`
	Relevance *int `json:"relevance"`
	Evidence  *int `json:"evidence"`
	Frontier  *int `json:"frontier,omitempty"`
}

// Scorer is implemented by each LLM provider.
type Scorer interface {
	// ScoreBatch scores one batch of papers. The returned slice may cover
	// only a subset of the batch when the model skips entries.
	ScoreBatch(ctx context.Context, req ScoreRequest) ([]PaperScores, error)

	// Provider returns the provider name for logging and metrics.
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// triagePromptHeader is the shared system prompt for the three base-scoring
// dimensions.
const triagePromptHeader = `You are an expert assistant for a longevity-focused research team.

Given a batch of research papers (title, abstract, altmetric score), score each paper on these dimensions:

1. **Relevance Score (0-10)**: How important is this paper for longevity, healthspan, or clinical decision-making?
   - 9-10: Directly addresses core longevity topics (cardiovascular, metabolism, exercise, sleep, neurodegeneration, cancer)
   - 7-8: Related to aging interventions, biomarkers, or healthspan optimization
   - 5-6: Tangentially relevant or narrow population
   - 0-4: Animal-only, mechanistic, rare diseases, or unrelated fields
   - Papers with no abstract should score 0-2

2. **Evidence Quality Score (0-10)**: How strong and credible is the evidence?
   - 9-10: Large human RCTs, high-quality meta-analyses, Mendelian randomization
   - 7-8: Well-designed observational studies, smaller RCTs, systematic reviews
   - 5-6: Cross-sectional studies, case-control, pilot trials
   - 0-4: Animal studies, in vitro, case reports, opinion pieces`

// frontierPromptSection adds the fourth dimension for the frontier digest.
const frontierPromptSection = `

3. **Frontier Score (0-10)**: How paradigm-shifting is this work for the aging field?
   - 9-10: Novel mechanism, first-in-human data, or results that challenge established dogma
   - 7-8: Meaningful advance on an emerging intervention or biomarker
   - 5-6: Incremental progress on a known frontier area
   - 0-4: Confirmatory, derivative, or outside the frontier of aging research`

// promptFooter3 closes the three-dimension prompt.
const promptFooter3 = `

Return a JSON array with objects containing:
- "index": the paper's index from the input (0-based)
- "relevance": relevance score (integer 0-10)
- "evidence": evidence quality score (integer 0-10)

Return ONLY the JSON array, no other text.`

// promptFooter4 closes the four-dimension prompt.
const promptFooter4 = `

Return a JSON array with objects containing:
- "index": the paper's index from the input (0-based)
- "relevance": relevance score (integer 0-10)
- "evidence": evidence quality score (integer 0-10)
- "frontier": frontier score (integer 0-10)

Return ONLY the JSON array, no other text.`

// BuildTriagePrompt builds the system and user prompts for one batch.
func BuildTriagePrompt(req ScoreRequest) (system, user string) {
	var sys strings.Builder
	sys.WriteString(triagePromptHeader)
	if req.UseFrontier {
		sys.WriteString(frontierPromptSection)
		sys.WriteString(promptFooter4)
	} else {
		sys.WriteString(promptFooter3)
	}

	var usr strings.Builder
	usr.WriteString("Papers to score:\n")
	for i, paper := range req.Papers {
		abstract := paper.Abstract
		if len(abstract) > maxAbstractChars {
			abstract = abstract[:maxAbstractChars] + "..."
		}
		usr.WriteString("\n---\n")
		usr.WriteString("Index: " + strconv.Itoa(i) + "\n")
		usr.WriteString("Title: " + paper.Title + "\n")
		usr.WriteString("Abstract: " + abstract + "\n")
		usr.WriteString("Altmetric Score: " + strconv.FormatFloat(paper.AltmetricScore, 'f', -1, 64) + "\n")
	}

	return sys.String(), usr.String()
}

// parseScoreContent parses the model's JSON array response for a batch of
// batchLen papers. Entries with an out-of-range index are dropped; scores
// are clamped to the 0-10 scale and negative values are treated as missing.
func parseScoreContent(content string, batchLen int) ([]PaperScores, error) {
	content = stripCodeFence(content)

	var raw []PaperScores
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parsing score array: %w", err)
	}

	scores := make([]PaperScores, 0, len(raw))
	for _, s := range raw {
		if s.Index < 0 || s.Index >= batchLen {
			continue
		}
		s.Relevance = clampScore(s.Relevance)
		s.Evidence = clampScore(s.Evidence)
		s.Frontier = clampScore(s.Frontier)
		scores = append(scores, s)
	}

	return scores, nil
}

// clampScore clamps a dimension to 0-10. Negative values mean the model
// declined to score the dimension and map to nil.
func clampScore(score *int) *int {
	if score == nil {
		return nil
	}
	if *score < 0 {
		return nil
	}
	if *score > 10 {
		ten := 10
		return &ten
	}
	return score
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit despite instructions.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	parts := strings.SplitN(content, "```", 3)
	if len(parts) < 2 {
		return content
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}
