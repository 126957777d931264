package domain

import (
	"fmt"
	"strings"
)

// AutoGenerateMarker is the query_fragment value that instructs the query
// builder to synthesize a disjunction from the topic's synonym terms instead
// of using an authored expression.
const AutoGenerateMarker = "auto"

// PresetAll is the reserved preset name selecting every active topic.
const PresetAll = "all"

// Priority is the tier controlling a topic's inclusion and score boost.
type Priority string

// Priority tiers.
const (
	// PriorityNormal topics participate only when their preset is selected.
	PriorityNormal Priority = "normal"

	// PriorityHigh topics grant a +1 combined-score boost to papers that
	// match them.
	PriorityHigh Priority = "high"

	// PriorityAlways topics are included in every candidate preset as long
	// as they remain active. The tier grants no score boost.
	PriorityAlways Priority = "always"
)

// ParsePriority parses a priority tier from its configuration literal.
// The empty string defaults to PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PriorityNormal):
		return PriorityNormal, nil
	case string(PriorityHigh):
		return PriorityHigh, nil
	case string(PriorityAlways):
		return PriorityAlways, nil
	default:
		return "", fmt.Errorf("unrecognized priority %q: %w", s, ErrConfig)
	}
}

// Topic represents one selectable research subject.
type Topic struct {
	// Name is the human-readable label, unique within the registry.
	Name string

	// QueryFragment is an authored boolean search expression, or
	// AutoGenerateMarker to synthesize one from Synonyms.
	QueryFragment string

	// Synonyms are the disjunction terms used when QueryFragment is the
	// auto-generate marker. Field qualifiers are preserved as authored.
	Synonyms []string

	// Active controls whether the topic participates in default searches.
	// Inactive topics remain addressable by name.
	Active bool

	// Priority is the topic's tier.
	Priority Priority

	// IntersectionWith lists other topic names whose expressions must ALL
	// match for a paper to qualify as this compound topic. When non-empty,
	// the generated intersection expression takes precedence over any
	// authored QueryFragment.
	IntersectionWith []string
}

// IsIntersection reports whether the topic is a compound intersection topic.
func (t Topic) IsIntersection() bool {
	return len(t.IntersectionWith) > 0
}

// AutoGenerated reports whether the topic's expression is synthesized from
// its synonym terms.
func (t Topic) AutoGenerated() bool {
	return strings.EqualFold(strings.TrimSpace(t.QueryFragment), AutoGenerateMarker)
}

// Preset is a named selection of topics with optional per-preset search
// overrides. Zero values mean "use the pipeline variant default".
type Preset struct {
	Name       string
	TopicNames []string
	Exclusions []string
	DaysBack   int
	MaxResults int
}

// AuthorLists holds the author allow/block lists applied during triage.
// Allow-listed authors grant a relevance boost; block-listed authors remove
// the paper from consideration entirely.
type AuthorLists struct {
	Allow []string
	Block []string
}
