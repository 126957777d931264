package domain

import (
	"strings"
	"time"
)

// Paper source labels.
const (
	SourcePubMed  = "pubmed"
	SourceBioRxiv = "biorxiv"
	SourceMedRxiv = "medrxiv"
)

// Author represents a paper author.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	if a.Affiliation == "" {
		return a.Name
	}
	return a.Name + " (" + a.Affiliation + ")"
}

// Paper is an external literature record flowing through the pipeline.
// Identification and bibliographic fields are populated by the fetch stage;
// the scoring fields are populated exactly once by the enrichment stage and
// never mutated afterward.
type Paper struct {
	PMID            string
	DOI             string
	Title           string
	Abstract        string
	Authors         []Author
	Journal         string
	PublicationDate *time.Time
	URL             string
	Source          string

	// LLM-assigned triage dimensions, each on a 0-10 scale. Nil means the
	// dimension has not been assigned; aggregation treats a nil required
	// dimension as a hard failure, never as zero.
	Relevance *int
	Evidence  *int
	Frontier  *int

	// Altmetric social-attention signals. A zero score means "no data".
	AltmetricScore    float64
	AltmetricTweeters int
	AltmetricNews     int

	// MatchedTopics are the registry topic names the paper matched.
	MatchedTopics []string
}

// CanonicalID returns the paper's preferred stable identifier:
// DOI first, then PMID, empty when neither is present.
func (p *Paper) CanonicalID() string {
	if doi := strings.TrimSpace(p.DOI); doi != "" {
		return "doi:" + strings.ToLower(doi)
	}
	if pmid := strings.TrimSpace(p.PMID); pmid != "" {
		return "pmid:" + pmid
	}
	return ""
}

// HasIdentifier reports whether the paper carries at least one identifier.
func (p *Paper) HasIdentifier() bool {
	return p.CanonicalID() != ""
}

// AuthorNames returns the plain author name list.
func (p *Paper) AuthorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}

// RankedPaper is a paper with its derived ranking outputs attached.
type RankedPaper struct {
	Paper

	// CombinedScore is the deterministic sum of the triage dimensions plus
	// the topic priority boost.
	CombinedScore int

	// PassesThreshold records whether CombinedScore met the variant's bar.
	PassesThreshold bool
}
