package scoring

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/domain"
)

func intPtr(v int) *int { return &v }

var testPriorities = map[string]domain.Priority{
	"GLP-1":  domain.PriorityNormal,
	"Muscle": domain.PriorityHigh,
	"ITP":    domain.PriorityAlways,
}

func TestPriorityBoost(t *testing.T) {
	tests := []struct {
		name    string
		matched []string
		want    int
	}{
		{name: "high priority match", matched: []string{"Muscle"}, want: 1},
		{name: "normal only", matched: []string{"GLP-1"}, want: 0},
		{name: "always grants no boost", matched: []string{"ITP"}, want: 0},
		{name: "boost applies once", matched: []string{"Muscle", "Muscle", "GLP-1"}, want: 1},
		{name: "unknown topic ignored", matched: []string{"Ghost"}, want: 0},
		{name: "no matches", matched: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityBoost(tt.matched, testPriorities))
		})
	}
}

func TestCombinedScore(t *testing.T) {
	threeDim := NewAggregator(Config{Threshold: 15}, testPriorities)
	fourDim := NewAggregator(Config{Threshold: 12, UseFrontier: true}, testPriorities)

	t.Run("three-dimension variant with high priority boost", func(t *testing.T) {
		p := domain.Paper{
			PMID:          "1",
			Relevance:     intPtr(7),
			Evidence:      intPtr(6),
			MatchedTopics: []string{"Muscle"},
		}
		score, err := threeDim.CombinedScore(&p)
		require.NoError(t, err)
		assert.Equal(t, 14, score)
		assert.False(t, threeDim.PassesThreshold(score))

		lower := NewAggregator(Config{Threshold: 12}, testPriorities)
		assert.True(t, lower.PassesThreshold(score))
	})

	t.Run("four-dimension variant includes frontier", func(t *testing.T) {
		p := domain.Paper{
			PMID:          "2",
			Relevance:     intPtr(7),
			Evidence:      intPtr(6),
			Frontier:      intPtr(8),
			MatchedTopics: []string{"GLP-1"},
		}
		score, err := fourDim.CombinedScore(&p)
		require.NoError(t, err)
		assert.Equal(t, 21, score)
	})

	t.Run("missing relevance fails", func(t *testing.T) {
		p := domain.Paper{PMID: "3", Evidence: intPtr(6)}
		_, err := threeDim.CombinedScore(&p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMissingScore))
	})

	t.Run("missing evidence never defaults to zero", func(t *testing.T) {
		p := domain.Paper{PMID: "4", Relevance: intPtr(9)}
		_, err := threeDim.CombinedScore(&p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMissingScore))

		var msErr *domain.MissingScoreError
		require.True(t, errors.As(err, &msErr))
		assert.Equal(t, DimensionEvidence, msErr.Dimension)
	})

	t.Run("missing frontier fails only under four dimensions", func(t *testing.T) {
		p := domain.Paper{PMID: "5", Relevance: intPtr(5), Evidence: intPtr(5)}

		score, err := threeDim.CombinedScore(&p)
		require.NoError(t, err)
		assert.Equal(t, 10, score)

		_, err = fourDim.CombinedScore(&p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMissingScore))
	})

	t.Run("monotone in every dimension", func(t *testing.T) {
		base := domain.Paper{PMID: "6", Relevance: intPtr(5), Evidence: intPtr(5), Frontier: intPtr(5)}
		baseScore, err := fourDim.CombinedScore(&base)
		require.NoError(t, err)

		bump := func(mutate func(*domain.Paper)) int {
			p := base
			mutate(&p)
			score, err := fourDim.CombinedScore(&p)
			require.NoError(t, err)
			return score
		}

		assert.Greater(t, bump(func(p *domain.Paper) { p.Relevance = intPtr(6) }), baseScore)
		assert.Greater(t, bump(func(p *domain.Paper) { p.Evidence = intPtr(6) }), baseScore)
		assert.Greater(t, bump(func(p *domain.Paper) { p.Frontier = intPtr(6) }), baseScore)
		assert.Greater(t, bump(func(p *domain.Paper) { p.MatchedTopics = []string{"Muscle"} }), baseScore)
	})

	t.Run("threshold is a sharp boundary", func(t *testing.T) {
		p := domain.Paper{PMID: "7", Relevance: intPtr(7), Evidence: intPtr(6)}
		agg := NewAggregator(Config{}, nil)
		score, err := agg.CombinedScore(&p)
		require.NoError(t, err)

		for th := score - 3; th <= score; th++ {
			assert.True(t, NewAggregator(Config{Threshold: th}, nil).PassesThreshold(score))
		}
		for th := score + 1; th <= score+3; th++ {
			assert.False(t, NewAggregator(Config{Threshold: th}, nil).PassesThreshold(score))
		}
	})
}

func TestAggregate(t *testing.T) {
	agg := NewAggregator(Config{Threshold: 12}, testPriorities)

	ranked, err := agg.Aggregate(domain.Paper{
		PMID:          "8",
		Relevance:     intPtr(7),
		Evidence:      intPtr(6),
		MatchedTopics: []string{"Muscle"},
	})
	require.NoError(t, err)
	assert.Equal(t, 14, ranked.CombinedScore)
	assert.True(t, ranked.PassesThreshold)

	_, err = agg.AggregateAll([]domain.Paper{
		{PMID: "9", Relevance: intPtr(5), Evidence: intPtr(5)},
		{PMID: "10", Relevance: intPtr(5)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingScore))
}

func TestSelect(t *testing.T) {
	mk := func(pmid string, combined int, frontier *int) domain.RankedPaper {
		return domain.RankedPaper{
			Paper:           domain.Paper{PMID: pmid, Frontier: frontier},
			CombinedScore:   combined,
			PassesThreshold: true,
		}
	}

	t.Run("caps at top-N in rank order", func(t *testing.T) {
		agg := NewAggregator(Config{Threshold: 10, TopN: 2}, nil)
		papers := []domain.RankedPaper{mk("1", 12, nil), mk("2", 18, nil), mk("3", 15, nil)}
		papers[0].PassesThreshold = true

		got := agg.Select(papers)
		require.Len(t, got, 2)
		assert.Equal(t, "2", got[0].PMID)
		assert.Equal(t, "3", got[1].PMID)
	})

	t.Run("drops failing papers", func(t *testing.T) {
		agg := NewAggregator(Config{Threshold: 15}, nil)
		failing := mk("1", 12, nil)
		failing.PassesThreshold = false

		got := agg.Select([]domain.RankedPaper{failing, mk("2", 16, nil)})
		require.Len(t, got, 1)
		assert.Equal(t, "2", got[0].PMID)
	})

	t.Run("frontier gate", func(t *testing.T) {
		agg := NewAggregator(Config{Threshold: 12, UseFrontier: true, MinFrontierScore: 6}, nil)
		got := agg.Select([]domain.RankedPaper{
			mk("1", 20, intPtr(5)),
			mk("2", 18, intPtr(7)),
			mk("3", 18, nil),
		})
		require.Len(t, got, 1)
		assert.Equal(t, "2", got[0].PMID)
	})
}

func TestRank(t *testing.T) {
	date := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			panic(err)
		}
		return &d
	}

	mk := func(pmid string, combined int, altmetric float64, pub *time.Time) domain.RankedPaper {
		return domain.RankedPaper{
			Paper:         domain.Paper{PMID: pmid, AltmetricScore: altmetric, PublicationDate: pub},
			CombinedScore: combined,
		}
	}

	papers := []domain.RankedPaper{
		mk("50", 14, 3.5, date("2026-08-01")),
		mk("40", 17, 0, nil),
		mk("30", 14, 88.2, date("2026-07-01")),
		mk("20", 14, 3.5, date("2026-08-10")),
		mk("10", 14, 3.5, nil),
	}

	want := []string{"40", "30", "20", "50", "10"}

	t.Run("orders by score, altmetric, date, identifier", func(t *testing.T) {
		ranked := make([]domain.RankedPaper, len(papers))
		copy(ranked, papers)
		Rank(ranked)

		got := make([]string, len(ranked))
		for i, p := range ranked {
			got[i] = p.PMID
		}
		assert.Equal(t, want, got)
	})

	t.Run("total order is stable across shuffles", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 20; i++ {
			shuffled := make([]domain.RankedPaper, len(papers))
			copy(shuffled, papers)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			Rank(shuffled)

			got := make([]string, len(shuffled))
			for j, p := range shuffled {
				got[j] = p.PMID
			}
			assert.Equal(t, want, got)
		}
	})
}
