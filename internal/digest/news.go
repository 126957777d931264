package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/helixir/literature-digest-service/internal/rss"
)

// maxItemsPerSource caps how many items one source contributes to the
// roundup.
const maxItemsPerSource = 5

// maxNewsTitleLength truncates long headlines in the roundup.
const maxNewsTitleLength = 100

// sourceEmoji decorates known sources; unknown sources get a plain page.
var sourceEmoji = map[string]string{
	"Lifespan.io":    "🧬",
	"Fight Aging!":   "⚔️",
	"r/longevity":    "📢",
	"Buck Institute": "🔬",
	"r/Peptides":     "💊",
}

// PostNewsRoundup posts the aggregated news items to the configured
// channel. An empty item list is a no-op.
func (p *SlackPoster) PostNewsRoundup(ctx context.Context, items []rss.Item) error {
	if len(items) == 0 {
		return nil
	}
	return p.post(ctx, buildNewsRoundupMessage(items, time.Now()))
}

// buildNewsRoundupMessage renders the roundup: header, count line, one
// section per source with up to maxItemsPerSource linked headlines, and a
// footer naming the sources.
func buildNewsRoundupMessage(items []rss.Item, now time.Time) slackMessage {
	blocks := []slackBlock{
		headerBlock("📰 Longevity News Roundup"),
		contextBlock(fmt.Sprintf("*%d new items* from the longevity community · %s",
			len(items), now.Format("Jan 2, 2006"))),
		dividerBlock(),
	}

	sources, bySource := groupBySource(items)

	for _, source := range sources {
		emoji, ok := sourceEmoji[source]
		if !ok {
			emoji = "📄"
		}
		blocks = append(blocks,
			sectionBlock(fmt.Sprintf("*%s %s*", emoji, source)),
			sectionBlock(strings.Join(newsItemLines(bySource[source], now), "\n")),
		)
	}

	blocks = append(blocks, dividerBlock(), contextBlock("Sources: "+strings.Join(sources, " · ")))

	return slackMessage{Blocks: blocks}
}

// groupBySource buckets items per source, keeping sources in first-seen
// order so the newest source leads.
func groupBySource(items []rss.Item) ([]string, map[string][]rss.Item) {
	var sources []string
	bySource := make(map[string][]rss.Item)
	for _, item := range items {
		if _, ok := bySource[item.Source]; !ok {
			sources = append(sources, item.Source)
		}
		bySource[item.Source] = append(bySource[item.Source], item)
	}
	return sources, bySource
}

// newsItemLines renders one source's items as linked bullets with a
// relative age, truncating the list past maxItemsPerSource.
func newsItemLines(items []rss.Item, now time.Time) []string {
	var lines []string
	for i, item := range items {
		if i == maxItemsPerSource {
			lines = append(lines, fmt.Sprintf("_...and %d more_", len(items)-maxItemsPerSource))
			break
		}

		title := item.Title
		if len(title) > maxNewsTitleLength {
			title = title[:maxNewsTitleLength] + "..."
		}

		line := fmt.Sprintf("• <%s|%s>", item.URL, title)
		if item.Published != nil {
			line += fmt.Sprintf(" _(%s)_", timeAgo(*item.Published, now))
		}
		lines = append(lines, line)
	}
	return lines
}

// timeAgo renders a coarse relative age for a roundup item.
func timeAgo(published, now time.Time) string {
	age := now.Sub(published)
	switch {
	case age < time.Hour:
		return "just now"
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
