package rss

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

// maxSummaryLength bounds the cleaned summary text.
const maxSummaryLength = 500

// rssDocument is the subset of an RSS 2.0 document the reader consumes.
type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string     `xml:"title"`
		Link  string     `xml:"link"`
		Items []rssEntry `xml:"item"`
	} `xml:"channel"`
}

type rssEntry struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// atomDocument is the subset of an Atom feed the reader consumes. The
// Reddit feeds are Atom.
type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	ID        string     `xml:"id"`
	Links     []atomLink `xml:"link"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
}

// parseFeed decodes an RSS 2.0 or Atom payload into items attributed to the
// given feed.
func parseFeed(data []byte, feed Feed) ([]Item, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, fmt.Errorf("feed %s is not well-formed XML: %w", feed.Name, err)
	}

	switch root {
	case "rss":
		return parseRSS(data, feed)
	case "feed":
		return parseAtom(data, feed)
	default:
		return nil, fmt.Errorf("feed %s has unrecognized root element %q", feed.Name, root)
	}
}

// rootElement returns the local name of the document's first start element.
func rootElement(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func parseRSS(data []byte, feed Feed) ([]Item, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode RSS feed %s: %w", feed.Name, err)
	}

	sourceURL := doc.Channel.Link
	if sourceURL == "" {
		sourceURL = feed.URL
	}

	items := make([]Item, 0, len(doc.Channel.Items))
	for _, entry := range doc.Channel.Items {
		items = append(items, Item{
			Title:     entryTitle(entry.Title),
			URL:       strings.TrimSpace(entry.Link),
			Source:    feed.Name,
			SourceURL: sourceURL,
			Published: parseFeedTime(entry.PubDate),
			Summary:   cleanSummary(entry.Description),
			GUID:      itemGUID(entry.GUID, feed.Name, entry.Link, entry.Title),
		})
	}
	return items, nil
}

func parseAtom(data []byte, feed Feed) ([]Item, error) {
	var doc atomDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode Atom feed %s: %w", feed.Name, err)
	}

	sourceURL := atomAlternateLink(doc.Links)
	if sourceURL == "" {
		sourceURL = feed.URL
	}

	items := make([]Item, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		published := parseFeedTime(entry.Published)
		if published == nil {
			published = parseFeedTime(entry.Updated)
		}

		summary := entry.Summary
		if summary == "" {
			summary = entry.Content
		}

		link := atomAlternateLink(entry.Links)
		items = append(items, Item{
			Title:     entryTitle(entry.Title),
			URL:       link,
			Source:    feed.Name,
			SourceURL: sourceURL,
			Published: published,
			Summary:   cleanSummary(summary),
			GUID:      itemGUID(entry.ID, feed.Name, link, entry.Title),
		})
	}
	return items, nil
}

// atomAlternateLink prefers the rel="alternate" link, falling back to the
// first link without a rel attribute.
func atomAlternateLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	for _, l := range links {
		if l.Rel == "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

func entryTitle(title string) string {
	title = strings.TrimSpace(html.UnescapeString(title))
	if title == "" {
		return "Untitled"
	}
	return title
}

// feedTimeLayouts are tried in order when parsing entry timestamps. RSS
// feeds use RFC 822/1123 variants; Atom uses RFC 3339.
var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05",
}

// parseFeedTime parses an entry timestamp, returning nil when the value is
// missing or not in a recognized layout.
func parseFeedTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// itemGUID derives a stable deduplication key: the entry's own identifier
// when present, otherwise a feed/link/title composite. Hashed so the key
// stays compact regardless of how long feed identifiers get.
func itemGUID(entryID, feedName, link, title string) string {
	content := strings.TrimSpace(entryID)
	if content == "" {
		content = feedName + ":" + link + ":" + title
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// cleanSummary strips markup, decodes entities, collapses whitespace, and
// truncates to maxSummaryLength.
func cleanSummary(summary string) string {
	if summary == "" {
		return ""
	}

	clean := htmlTagPattern.ReplaceAllString(summary, " ")
	clean = html.UnescapeString(clean)
	clean = strings.Join(strings.Fields(clean), " ")

	if len(clean) > maxSummaryLength {
		clean = clean[:maxSummaryLength-3] + "..."
	}
	return clean
}
