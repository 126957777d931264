package topics

import (
	"fmt"
	"strings"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Registry holds the loaded topic configuration. It is immutable after
// construction and safe for concurrent readers.
type Registry struct {
	topics  []domain.Topic
	byName  map[string]int
	presets map[string]domain.Preset
	authors domain.AuthorLists
}

// Option customizes registry construction.
type Option func(*Registry) error

// WithPresets registers named presets. Preset topic references are validated
// against the topic set.
func WithPresets(presets []domain.Preset) Option {
	return func(r *Registry) error {
		for _, p := range presets {
			key := normalizeName(p.Name)
			if _, exists := r.presets[key]; exists {
				return domain.NewConfigError("presets", fmt.Sprintf("duplicate preset %q", p.Name))
			}
			for _, name := range p.TopicNames {
				if _, ok := r.byName[normalizeName(name)]; !ok {
					return domain.NewConfigError("presets",
						fmt.Sprintf("preset %q references unknown topic %q", p.Name, name))
				}
			}
			r.presets[key] = p
		}
		return nil
	}
}

// WithAuthorLists registers the triage author allow/block lists.
func WithAuthorLists(lists domain.AuthorLists) Option {
	return func(r *Registry) error {
		r.authors = lists
		return nil
	}
}

// New builds a registry from loaded topic records. It fails with a
// ConfigError on duplicate topic names, self-referential intersections, or
// intersection references to topics absent from the set.
func New(topicList []domain.Topic, opts ...Option) (*Registry, error) {
	r := &Registry{
		topics:  make([]domain.Topic, len(topicList)),
		byName:  make(map[string]int, len(topicList)),
		presets: make(map[string]domain.Preset),
	}
	copy(r.topics, topicList)

	for i, t := range r.topics {
		key := normalizeName(t.Name)
		if key == "" {
			return nil, domain.NewConfigError("topics", "empty topic name")
		}
		if _, exists := r.byName[key]; exists {
			return nil, domain.NewConfigError("topics", fmt.Sprintf("duplicate topic name %q", t.Name))
		}
		r.byName[key] = i
	}

	for _, t := range r.topics {
		for _, ref := range t.IntersectionWith {
			if normalizeName(ref) == normalizeName(t.Name) {
				return nil, domain.NewConfigError("topics",
					fmt.Sprintf("topic %q intersects with itself", t.Name))
			}
			if _, ok := r.byName[normalizeName(ref)]; !ok {
				return nil, domain.NewConfigError("topics",
					fmt.Sprintf("topic %q intersects with unknown topic %q", t.Name, ref))
			}
		}
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Load builds a registry from configuration files. The presets and authors
// paths are optional.
func Load(topicsPath, presetsPath string, authors domain.AuthorLists) (*Registry, error) {
	topicList, err := LoadTopicsFile(topicsPath)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithAuthorLists(authors)}
	if presetsPath != "" {
		presets, err := LoadPresetsFile(presetsPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPresets(presets))
	}

	return New(topicList, opts...)
}

// TopicByName returns the topic with the given name (case-insensitive).
func (r *Registry) TopicByName(name string) (domain.Topic, error) {
	idx, ok := r.byName[normalizeName(name)]
	if !ok {
		return domain.Topic{}, domain.NewNotFoundError("topic", name)
	}
	return r.topics[idx], nil
}

// Topics returns all topics in configuration order.
func (r *Registry) Topics() []domain.Topic {
	out := make([]domain.Topic, len(r.topics))
	copy(out, r.topics)
	return out
}

// ListActive returns the active topics selected by the named preset, union
// the active always-priority topics, deduplicated by name with configuration
// order preserved. The empty string and the reserved name "all" select every
// active topic. Always-priority topics bypass preset filtering only: an
// inactive always topic is still excluded.
func (r *Registry) ListActive(preset string) ([]domain.Topic, error) {
	selected, err := r.presetSelection(preset)
	if err != nil {
		return nil, err
	}

	var out []domain.Topic
	for _, t := range r.topics {
		if !t.Active {
			continue
		}
		if selected == nil || selected[normalizeName(t.Name)] || t.Priority == domain.PriorityAlways {
			out = append(out, t)
		}
	}
	return out, nil
}

// presetSelection resolves a preset name to its member-name set. A nil set
// means "all topics selected".
func (r *Registry) presetSelection(preset string) (map[string]bool, error) {
	name := strings.TrimSpace(preset)
	if name == "" || strings.EqualFold(name, domain.PresetAll) {
		return nil, nil
	}

	p, ok := r.presets[normalizeName(name)]
	if !ok {
		return nil, domain.NewNotFoundError("preset", preset)
	}

	selected := make(map[string]bool, len(p.TopicNames))
	for _, n := range p.TopicNames {
		selected[normalizeName(n)] = true
	}
	return selected, nil
}

// Preset returns the named preset record.
func (r *Registry) Preset(name string) (domain.Preset, error) {
	p, ok := r.presets[normalizeName(name)]
	if !ok {
		return domain.Preset{}, domain.NewNotFoundError("preset", name)
	}
	return p, nil
}

// Presets returns all registered presets.
func (r *Registry) Presets() []domain.Preset {
	out := make([]domain.Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	return out
}

// AlwaysTopics returns the active topics with the always priority tier.
func (r *Registry) AlwaysTopics() []domain.Topic {
	var out []domain.Topic
	for _, t := range r.topics {
		if t.Active && t.Priority == domain.PriorityAlways {
			out = append(out, t)
		}
	}
	return out
}

// HighPriorityNames returns the names of topics in the high tier.
func (r *Registry) HighPriorityNames() []string {
	var out []string
	for _, t := range r.topics {
		if t.Priority == domain.PriorityHigh {
			out = append(out, t.Name)
		}
	}
	return out
}

// Priorities returns a name-to-tier lookup for the scoring aggregator.
func (r *Registry) Priorities() map[string]domain.Priority {
	out := make(map[string]domain.Priority, len(r.topics))
	for _, t := range r.topics {
		out[t.Name] = t.Priority
	}
	return out
}

// Authors returns the triage author allow/block lists.
func (r *Registry) Authors() domain.AuthorLists {
	return r.authors
}

// normalizeName canonicalizes topic and preset names for lookup.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
