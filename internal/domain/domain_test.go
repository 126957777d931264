package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Priority
		wantErr bool
	}{
		{name: "normal", input: "normal", want: PriorityNormal},
		{name: "high", input: "high", want: PriorityHigh},
		{name: "always", input: "always", want: PriorityAlways},
		{name: "empty defaults to normal", input: "", want: PriorityNormal},
		{name: "case insensitive", input: "HIGH", want: PriorityHigh},
		{name: "whitespace trimmed", input: "  always  ", want: PriorityAlways},
		{name: "unknown tier", input: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVariant(t *testing.T) {
	got, err := ParseVariant("daily")
	require.NoError(t, err)
	assert.Equal(t, VariantDaily, got)

	got, err = ParseVariant(" Frontier ")
	require.NoError(t, err)
	assert.Equal(t, VariantFrontier, got)

	_, err = ParseVariant("weekly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPaperCanonicalID(t *testing.T) {
	tests := []struct {
		name  string
		paper Paper
		want  string
	}{
		{
			name:  "DOI preferred over PMID",
			paper: Paper{DOI: "10.1038/S41586-024-1234", PMID: "39012345"},
			want:  "doi:10.1038/s41586-024-1234",
		},
		{
			name:  "PMID fallback",
			paper: Paper{PMID: "39012345"},
			want:  "pmid:39012345",
		},
		{
			name:  "no identifier",
			paper: Paper{Title: "untitled preprint"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.paper.CanonicalID())
			assert.Equal(t, tt.want != "", tt.paper.HasIdentifier())
		})
	}
}

func TestTopicHelpers(t *testing.T) {
	auto := Topic{Name: "NAD+ Metabolism", QueryFragment: "auto", Synonyms: []string{"NAD+", "nicotinamide riboside"}}
	assert.True(t, auto.AutoGenerated())
	assert.False(t, auto.IsIntersection())

	compound := Topic{Name: "GLP-1 & Muscle", IntersectionWith: []string{"GLP-1 Agonists", "Muscle & Sarcopenia"}}
	assert.True(t, compound.IsIntersection())
	assert.False(t, compound.AutoGenerated())
}

func TestErrorUnwrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "config", err: NewConfigError("topics.csv", "duplicate name"), sentinel: ErrConfig},
		{name: "record config", err: NewRecordConfigError("topics.csv", 3, "bad priority"), sentinel: ErrConfig},
		{name: "not found", err: NewNotFoundError("topic", "GLP-1"), sentinel: ErrNotFound},
		{name: "invalid query", err: NewInvalidQueryError("empty topic list"), sentinel: ErrInvalidQuery},
		{name: "missing score", err: NewMissingScoreError("pmid:1", "evidence"), sentinel: ErrMissingScore},
		{name: "validation", err: NewValidationError("preset", "unknown"), sentinel: ErrInvalidInput},
		{name: "rate limit", err: NewRateLimitError("pubmed", 2*time.Second), sentinel: ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestMissingScoreErrorMessage(t *testing.T) {
	err := NewMissingScoreError("doi:10.1/abc", "frontier")
	assert.Contains(t, err.Error(), "doi:10.1/abc")
	assert.Contains(t, err.Error(), `"frontier"`)
}
