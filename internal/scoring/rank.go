package scoring

import (
	"sort"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Rank sorts papers in place into the digest's publication order:
// descending combined score, then descending altmetric score, then
// descending publication date (undated papers last), then ascending
// canonical identifier, then ascending title. The final keys make the
// ordering a total order, so identical inputs always produce identical
// output across runs.
func Rank(papers []domain.RankedPaper) {
	sort.Slice(papers, func(i, j int) bool {
		return Less(&papers[i], &papers[j])
	})
}

// Less is the ranking comparator used by Rank.
func Less(a, b *domain.RankedPaper) bool {
	if a.CombinedScore != b.CombinedScore {
		return a.CombinedScore > b.CombinedScore
	}

	if a.AltmetricScore != b.AltmetricScore {
		return a.AltmetricScore > b.AltmetricScore
	}

	switch {
	case a.PublicationDate != nil && b.PublicationDate == nil:
		return true
	case a.PublicationDate == nil && b.PublicationDate != nil:
		return false
	case a.PublicationDate != nil && b.PublicationDate != nil:
		if !a.PublicationDate.Equal(*b.PublicationDate) {
			return a.PublicationDate.After(*b.PublicationDate)
		}
	}

	if ida, idb := a.CanonicalID(), b.CanonicalID(); ida != idb {
		return ida < idb
	}

	return strings.ToLower(a.Title) < strings.ToLower(b.Title)
}
