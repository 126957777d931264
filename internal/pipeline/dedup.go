package pipeline

import (
	"strings"
	"unicode"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// titlePrefixLen bounds the normalized-title comparison. Titles agreeing on
// this many characters are treated as the same paper, which catches preprint
// and journal versions whose subtitles diverge.
const titlePrefixLen = 60

// dedupePapers removes duplicate candidates in slice order: first occurrence
// wins. A paper is a duplicate when it shares a DOI, a PMID, or a normalized
// title prefix with an earlier paper. Returns the kept papers and the number
// dropped.
func dedupePapers(papers []*domain.Paper) ([]*domain.Paper, int) {
	seenDOI := make(map[string]bool)
	seenPMID := make(map[string]bool)
	seenTitle := make(map[string]bool)

	kept := make([]*domain.Paper, 0, len(papers))
	dropped := 0

	for _, p := range papers {
		doi := strings.ToLower(strings.TrimSpace(p.DOI))
		pmid := strings.TrimSpace(p.PMID)
		title := normalizedTitleKey(p.Title)

		if (doi != "" && seenDOI[doi]) ||
			(pmid != "" && seenPMID[pmid]) ||
			(title != "" && seenTitle[title]) {
			dropped++
			continue
		}

		if doi != "" {
			seenDOI[doi] = true
		}
		if pmid != "" {
			seenPMID[pmid] = true
		}
		if title != "" {
			seenTitle[title] = true
		}
		kept = append(kept, p)
	}

	return kept, dropped
}

// dropPublished removes papers whose canonical ID appears in the published
// set, keeping papers without an identifier. Returns the kept papers and the
// number dropped.
func dropPublished(papers []*domain.Paper, published map[string]struct{}) ([]*domain.Paper, int) {
	if len(published) == 0 {
		return papers, 0
	}

	kept := make([]*domain.Paper, 0, len(papers))
	dropped := 0
	for _, p := range papers {
		if id := p.CanonicalID(); id != "" {
			if _, seen := published[id]; seen {
				dropped++
				continue
			}
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

// normalizedTitleKey lowercases a title, strips everything but letters and
// digits, and truncates to titlePrefixLen. Empty input yields an empty key,
// which never matches.
func normalizedTitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= titlePrefixLen {
			break
		}
	}
	return b.String()
}
