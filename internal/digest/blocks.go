package digest

import (
	"fmt"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Slack Block Kit payload types, limited to the block shapes the digest uses.

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string       `json:"type"`
	Text     *textObject  `json:"text,omitempty"`
	Elements []textObject `json:"elements,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func headerBlock(text string) slackBlock {
	return slackBlock{Type: "header", Text: &textObject{Type: "plain_text", Text: text}}
}

func sectionBlock(text string) slackBlock {
	return slackBlock{Type: "section", Text: &textObject{Type: "mrkdwn", Text: text}}
}

func contextBlock(text string) slackBlock {
	return slackBlock{Type: "context", Elements: []textObject{{Type: "mrkdwn", Text: text}}}
}

func dividerBlock() slackBlock {
	return slackBlock{Type: "divider"}
}

// buildDigestMessage renders the ranked papers as a Block Kit message:
// header, context line, one section per paper separated by dividers, and a
// score legend footer.
func buildDigestMessage(result *domain.DigestResult) slackMessage {
	blocks := []slackBlock{
		headerBlock(Title(result.Run.Variant)),
		contextBlock(subtitle(result)),
		dividerBlock(),
	}

	for i := range result.Papers {
		blocks = append(blocks, paperBlock(&result.Papers[i], i+1, result.Run.Variant))
		if i < len(result.Papers)-1 {
			blocks = append(blocks, dividerBlock())
		}
	}

	blocks = append(blocks, dividerBlock(), contextBlock(scoreLegend(result.Run.Variant)))

	return slackMessage{Blocks: blocks}
}

// paperBlock renders one ranked paper as a mrkdwn section.
func paperBlock(paper *domain.RankedPaper, rank int, variant domain.Variant) slackBlock {
	title := paper.Title
	if title == "" {
		title = "Untitled"
	}

	var lines []string
	if paper.URL != "" {
		lines = append(lines, fmt.Sprintf("*%d. <%s|%s>*", rank, paper.URL, title))
	} else {
		lines = append(lines, fmt.Sprintf("*%d. %s*", rank, title))
	}

	if meta := slackMetaLine(paper); meta != "" {
		lines = append(lines, meta)
	}
	lines = append(lines, scoresLine(paper, variant))

	if authors := authorsLine(paper); authors != "" {
		lines = append(lines, "", authors)
	}

	return sectionBlock(strings.Join(lines, "\n"))
}

// slackMetaLine builds "journal · date · DOI · source" with Slack link syntax.
func slackMetaLine(paper *domain.RankedPaper) string {
	var parts []string
	if paper.Journal != "" {
		parts = append(parts, "_"+paper.Journal+"_")
	}
	if paper.PublicationDate != nil {
		parts = append(parts, paper.PublicationDate.Format("Jan 2006"))
	}
	if paper.DOI != "" {
		parts = append(parts, fmt.Sprintf("<%s|DOI>", doiURL(paper.DOI)))
	}
	if paper.URL != "" && paper.Source == domain.SourcePubMed {
		parts = append(parts, fmt.Sprintf("<%s|PubMed>", paper.URL))
	}
	return strings.Join(parts, " · ")
}

// scoreLegend explains the score abbreviations in the footer.
func scoreLegend(variant domain.Variant) string {
	if variant == domain.VariantFrontier {
		return "Rel = longevity relevance · Evid = study quality · Frontier = paradigm-shift potential"
	}
	return "Rel = longevity relevance · Evid = study quality"
}

// buildNoPapersMessage renders the notice posted when no papers pass.
func buildNoPapersMessage(variant domain.Variant, days int) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		headerBlock(Title(variant)),
		sectionBlock(fmt.Sprintf("No papers from the past %d days met the scoring threshold today.", days)),
	}}
}

// buildErrorMessage renders a failure notice with the cause fenced.
func buildErrorMessage(variant domain.Variant, cause string) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		headerBlock(Title(variant) + " — Error"),
		sectionBlock(fmt.Sprintf("The digest run encountered an error:\n```%s```", cause)),
	}}
}
