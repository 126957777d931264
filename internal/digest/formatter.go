// Package digest renders pipeline output for delivery: a markdown export
// and a Slack Block Kit message posted via incoming webhook.
package digest

import (
	"fmt"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// maxAuthorsLen bounds the author line in rendered output.
const maxAuthorsLen = 100

// Title returns the digest heading for a variant.
func Title(variant domain.Variant) string {
	if variant == domain.VariantFrontier {
		return "Frontier Literature Digest"
	}
	return "Literature Digest"
}

// subtitle describes the selection under the heading.
func subtitle(result *domain.DigestResult) string {
	dims := "relevance and evidence quality"
	if result.Run.Variant == domain.VariantFrontier {
		dims = "relevance, evidence quality, and frontier potential"
	}
	return fmt.Sprintf("Top %d papers from the past %d days, ranked by %s.",
		len(result.Papers), result.Run.DaysBack, dims)
}

// FormatMarkdown renders the full digest as a markdown document.
func FormatMarkdown(result *domain.DigestResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — %s\n\n", Title(result.Run.Variant), result.Run.StartedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n", subtitle(result))

	for i := range result.Papers {
		paper := &result.Papers[i]
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, paper.Title)

		if meta := metaLine(paper); meta != "" {
			fmt.Fprintf(&b, "%s\n\n", meta)
		}
		fmt.Fprintf(&b, "%s\n", scoresLine(paper, result.Run.Variant))

		if authors := authorsLine(paper); authors != "" {
			fmt.Fprintf(&b, "\n%s\n", authors)
		}
		if len(paper.MatchedTopics) > 0 {
			fmt.Fprintf(&b, "\nTopics: %s\n", strings.Join(paper.MatchedTopics, ", "))
		}
	}

	return b.String()
}

// metaLine builds "journal · date · links" for one paper.
func metaLine(paper *domain.RankedPaper) string {
	var parts []string
	if paper.Journal != "" {
		parts = append(parts, "_"+paper.Journal+"_")
	}
	if paper.PublicationDate != nil {
		parts = append(parts, paper.PublicationDate.Format("Jan 2006"))
	}
	if paper.DOI != "" {
		parts = append(parts, fmt.Sprintf("[DOI](%s)", doiURL(paper.DOI)))
	}
	if paper.URL != "" {
		parts = append(parts, fmt.Sprintf("[Link](%s)", paper.URL))
	}
	return strings.Join(parts, " · ")
}

// scoresLine renders the triage dimensions, or a placeholder when the paper
// was never scored.
func scoresLine(paper *domain.RankedPaper, variant domain.Variant) string {
	if paper.Relevance == nil {
		return "_Scores unavailable_"
	}

	parts := []string{fmt.Sprintf("Rel %d", *paper.Relevance)}
	if paper.Evidence != nil {
		parts = append(parts, fmt.Sprintf("Evid %d", *paper.Evidence))
	}
	if variant == domain.VariantFrontier && paper.Frontier != nil {
		parts = append(parts, fmt.Sprintf("Frontier %d", *paper.Frontier))
	}
	parts = append(parts, fmt.Sprintf("Combined %d", paper.CombinedScore))
	if paper.AltmetricScore > 0 {
		parts = append(parts, fmt.Sprintf("Altmetric %.1f", paper.AltmetricScore))
	}
	return strings.Join(parts, " · ")
}

// authorsLine renders the truncated author list.
func authorsLine(paper *domain.RankedPaper) string {
	names := strings.Join(paper.AuthorNames(), ", ")
	if names == "" {
		return ""
	}
	if len(names) > maxAuthorsLen {
		names = names[:maxAuthorsLen-3] + "..."
	}
	return "― " + names
}

// doiURL returns the resolvable form of a DOI.
func doiURL(doi string) string {
	if strings.HasPrefix(doi, "http") {
		return doi
	}
	return "https://doi.org/" + doi
}
