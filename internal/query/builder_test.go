package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// mapResolver is a test Resolver backed by a map.
type mapResolver map[string]domain.Topic

func (m mapResolver) TopicByName(name string) (domain.Topic, error) {
	t, ok := m[name]
	if !ok {
		return domain.Topic{}, domain.NewNotFoundError("topic", name)
	}
	return t, nil
}

var (
	glp1 = domain.Topic{
		Name:          "GLP-1",
		QueryFragment: "GLP-1 OR semaglutide OR tirzepatide",
		Active:        true,
		Priority:      domain.PriorityNormal,
	}
	muscle = domain.Topic{
		Name:          "Muscle",
		QueryFragment: `sarcopenia OR "muscle mass"`,
		Active:        true,
		Priority:      domain.PriorityHigh,
	}
	nad = domain.Topic{
		Name:          "NAD+",
		QueryFragment: "auto",
		Synonyms:      []string{"NAD+", "nicotinamide riboside", `"NMN"[tiab]`},
		Active:        true,
		Priority:      domain.PriorityNormal,
	}
)

func TestBuildTopicQuery(t *testing.T) {
	t.Run("literal fragment verbatim", func(t *testing.T) {
		got, err := BuildTopicQuery(glp1, nil)
		require.NoError(t, err)
		assert.Equal(t, "GLP-1 OR semaglutide OR tirzepatide", got)
	})

	t.Run("auto-generated from synonyms", func(t *testing.T) {
		got, err := BuildTopicQuery(nad, nil)
		require.NoError(t, err)
		assert.Equal(t, `NAD+ OR "nicotinamide riboside" OR "NMN"[tiab]`, got)
	})

	t.Run("auto marker without synonyms fails", func(t *testing.T) {
		_, err := BuildTopicQuery(domain.Topic{Name: "Empty", QueryFragment: "auto"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	})

	t.Run("empty fragment fails", func(t *testing.T) {
		_, err := BuildTopicQuery(domain.Topic{Name: "Blank"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	})

	t.Run("intersection topic resolves members", func(t *testing.T) {
		compound := domain.Topic{
			Name:             "GLP-1 & Muscle",
			IntersectionWith: []string{"GLP-1", "Muscle"},
		}
		resolver := mapResolver{"GLP-1": glp1, "Muscle": muscle}

		got, err := BuildTopicQuery(compound, resolver)
		require.NoError(t, err)
		assert.Equal(t, `(GLP-1 OR semaglutide OR tirzepatide) AND (sarcopenia OR "muscle mass")`, got)
	})

	t.Run("intersection generated form overrides authored fragment", func(t *testing.T) {
		compound := domain.Topic{
			Name:             "GLP-1 & Muscle",
			QueryFragment:    "stale authored expression",
			IntersectionWith: []string{"GLP-1", "Muscle"},
		}
		resolver := mapResolver{"GLP-1": glp1, "Muscle": muscle}

		got, err := BuildTopicQuery(compound, resolver)
		require.NoError(t, err)
		assert.NotContains(t, got, "stale")
	})

	t.Run("intersection with unknown member fails", func(t *testing.T) {
		compound := domain.Topic{Name: "Bad", IntersectionWith: []string{"Ghost"}}
		_, err := BuildTopicQuery(compound, mapResolver{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestBuildIntersectionQuery(t *testing.T) {
	t.Run("two topics", func(t *testing.T) {
		got, err := BuildIntersectionQuery([]domain.Topic{glp1, muscle})
		require.NoError(t, err)
		assert.Equal(t, `(GLP-1 OR semaglutide OR tirzepatide) AND (sarcopenia OR "muscle mass")`, got)
	})

	t.Run("one AND per adjacent pair, each sub-expression parenthesized", func(t *testing.T) {
		topics := []domain.Topic{glp1, muscle, nad}
		got, err := BuildIntersectionQuery(topics)
		require.NoError(t, err)
		assert.Equal(t, len(topics)-1, strings.Count(got, ") AND ("))
		assert.True(t, strings.HasPrefix(got, "("))
		assert.True(t, strings.HasSuffix(got, ")"))
	})

	t.Run("canonical order is input order", func(t *testing.T) {
		forward, err := BuildIntersectionQuery([]domain.Topic{glp1, muscle})
		require.NoError(t, err)
		reversed, err := BuildIntersectionQuery([]domain.Topic{muscle, glp1})
		require.NoError(t, err)
		assert.NotEqual(t, forward, reversed)
		assert.Less(t, strings.Index(forward, "GLP-1"), strings.Index(forward, "sarcopenia"))
	})

	t.Run("single topic degenerates to its own query", func(t *testing.T) {
		got, err := BuildIntersectionQuery([]domain.Topic{glp1})
		require.NoError(t, err)
		assert.Equal(t, glp1.QueryFragment, got)
	})

	t.Run("empty list fails", func(t *testing.T) {
		_, err := BuildIntersectionQuery(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	})

	t.Run("nested intersection rejected", func(t *testing.T) {
		compound := domain.Topic{Name: "Compound", IntersectionWith: []string{"GLP-1"}}
		_, err := BuildIntersectionQuery([]domain.Topic{compound, muscle})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	})
}

func TestBuildCombinedQuery(t *testing.T) {
	t.Run("disjunction of parenthesized expressions", func(t *testing.T) {
		got, err := BuildCombinedQuery([]domain.Topic{glp1, muscle})
		require.NoError(t, err)
		assert.Equal(t, `(GLP-1 OR semaglutide OR tirzepatide) OR (sarcopenia OR "muscle mass")`, got)
	})

	t.Run("order changes the literal string only", func(t *testing.T) {
		forward, err := BuildCombinedQuery([]domain.Topic{glp1, muscle})
		require.NoError(t, err)
		reversed, err := BuildCombinedQuery([]domain.Topic{muscle, glp1})
		require.NoError(t, err)

		// Same clause set, different literal order.
		assert.NotEqual(t, forward, reversed)
		for _, clause := range []string{
			"(GLP-1 OR semaglutide OR tirzepatide)",
			`(sarcopenia OR "muscle mass")`,
		} {
			assert.Contains(t, forward, clause)
			assert.Contains(t, reversed, clause)
		}
	})

	t.Run("empty list fails", func(t *testing.T) {
		_, err := BuildCombinedQuery(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	})
}

func TestBuildSearchQuery(t *testing.T) {
	t.Run("base filter and exclusions", func(t *testing.T) {
		got, err := BuildSearchQuery([]domain.Topic{glp1, muscle}, nil, SearchOptions{
			IncludeBaseFilter: true,
			Exclusions:        []string{"mouse", "in vitro"},
		})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(got, BaseAgingFilter+" AND ("))
		assert.Contains(t, got, "(GLP-1 OR semaglutide OR tirzepatide)")
		assert.Contains(t, got, `(sarcopenia OR "muscle mass")`)
		assert.Contains(t, got, " NOT mouse[tiab]")
		assert.Contains(t, got, ` NOT "in vitro"[tiab]`)
		assert.True(t, Validate(got).Valid)
	})

	t.Run("without base filter the disjunction is wrapped", func(t *testing.T) {
		got, err := BuildSearchQuery([]domain.Topic{glp1}, nil, SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, "((GLP-1 OR semaglutide OR tirzepatide))", got)
	})

	t.Run("authored exclusion qualifier preserved", func(t *testing.T) {
		got, err := BuildSearchQuery([]domain.Topic{glp1}, nil, SearchOptions{
			Exclusions: []string{"review[pt]"},
		})
		require.NoError(t, err)
		assert.Contains(t, got, " NOT review[pt]")
	})

	t.Run("no topics fails", func(t *testing.T) {
		_, err := BuildSearchQuery(nil, nil, SearchOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
	})
}

func TestValidate(t *testing.T) {
	t.Run("balanced query is valid", func(t *testing.T) {
		report := Validate(`(a OR b) AND (c)`)
		assert.True(t, report.Valid)
		assert.Empty(t, report.Warnings)
		assert.Equal(t, len(`(a OR b) AND (c)`), report.CharCount)
	})

	t.Run("unbalanced parentheses flagged", func(t *testing.T) {
		report := Validate("(a OR b")
		assert.False(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "parentheses")
	})

	t.Run("empty query flagged", func(t *testing.T) {
		report := Validate("   ")
		assert.False(t, report.Valid)
	})

	t.Run("overlong query flagged", func(t *testing.T) {
		report := Validate("(" + strings.Repeat("x", maxQueryLength) + ")")
		assert.False(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "long")
	})
}
