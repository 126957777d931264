// Package rss aggregates longevity news from community RSS and Atom feeds
// into a Slack roundup. Unlike the paper digest pipeline, items are not
// scored; they are deduplicated against previously posted items and
// forwarded as-is.
package rss

import (
	"time"
)

// Feed describes one subscribed news source.
type Feed struct {
	// Name is the display name used in the roundup.
	Name string
	// URL is the RSS or Atom feed endpoint.
	URL string
	// Category groups feeds (news, reddit, research).
	Category string
	// Priority is informational ordering metadata (high, medium).
	Priority string
}

// Item is a single entry fetched from a feed.
type Item struct {
	// Title is the entry headline.
	Title string
	// URL links to the full article or post.
	URL string
	// Source is the name of the feed the item came from.
	Source string
	// SourceURL is the feed's site link.
	SourceURL string
	// Published is the entry's publication time, when the feed provides one.
	Published *time.Time
	// Summary is the entry body with markup stripped, truncated.
	Summary string
	// GUID uniquely identifies the item for cross-run deduplication.
	GUID string
}

// DefaultFeeds returns the built-in longevity news sources, used when no
// feeds are configured.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "Lifespan.io", URL: "https://www.lifespan.io/feed/", Category: "news", Priority: "high"},
		{Name: "Fight Aging!", URL: "https://www.fightaging.org/feed/", Category: "news", Priority: "high"},
		{Name: "r/longevity", URL: "https://www.reddit.com/r/longevity/.rss", Category: "reddit", Priority: "high"},
		{Name: "Buck Institute", URL: "https://www.buckinstitute.org/feed/", Category: "research", Priority: "medium"},
		{Name: "r/Peptides", URL: "https://www.reddit.com/r/Peptides/.rss", Category: "reddit", Priority: "medium"},
	}
}

// FilterSeen drops items whose GUID appears in the seen set, preserving
// order.
func FilterSeen(items []Item, seen map[string]struct{}) []Item {
	fresh := make([]Item, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.GUID]; ok {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}

// CountBySource tallies items per source name.
func CountBySource(items []Item) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Source]++
	}
	return counts
}
