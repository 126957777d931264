package pipeline

import (
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// annotateTopics records, on each paper, the names of the topics whose name
// or synonym terms appear in its title or abstract. The scoring aggregator
// uses the matched names for the high-priority boost, and the digest prints
// them. Matching is a case-insensitive substring check; a paper matching
// none of the topic terms simply gets no boost.
func annotateTopics(papers []*domain.Paper, topicList []domain.Topic) {
	type matcher struct {
		name  string
		terms []string
	}

	matchers := make([]matcher, 0, len(topicList))
	for _, t := range topicList {
		matchers = append(matchers, matcher{name: t.Name, terms: topicMatchTerms(t)})
	}

	for _, p := range papers {
		text := strings.ToLower(p.Title + " " + p.Abstract)
		for _, m := range matchers {
			for _, term := range m.terms {
				if strings.Contains(text, term) {
					p.MatchedTopics = append(p.MatchedTopics, m.name)
					break
				}
			}
		}
	}
}

// searchTerms collects the plain match terms of all topics, for the paper
// sources that filter locally instead of accepting a boolean query.
func searchTerms(topicList []domain.Topic) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range topicList {
		for _, term := range topicMatchTerms(t) {
			if !seen[term] {
				seen[term] = true
				out = append(out, term)
			}
		}
	}
	return out
}

// topicMatchTerms returns the topic's name and synonyms as plain lowercase
// terms, with PubMed field qualifiers and quoting stripped.
func topicMatchTerms(t domain.Topic) []string {
	raw := make([]string, 0, len(t.Synonyms)+1)
	raw = append(raw, t.Name)
	raw = append(raw, t.Synonyms...)

	out := make([]string, 0, len(raw))
	for _, term := range raw {
		if cleaned := cleanTerm(term); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// cleanTerm strips a bracketed field qualifier, quoting, and wildcard
// markers from a search term and lowercases it.
func cleanTerm(term string) string {
	if i := strings.Index(term, "["); i >= 0 {
		term = term[:i]
	}
	term = strings.Trim(strings.TrimSpace(term), `"*`)
	return strings.ToLower(term)
}
