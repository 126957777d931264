package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/domain"
)

var testBatch = ScoreRequest{
	Papers: []*domain.Paper{
		{Title: "Paper A", Abstract: "Abstract A."},
		{Title: "Paper B", Abstract: "Abstract B."},
	},
}

const scoreArrayJSON = `[{"index":0,"relevance":8,"evidence":7},{"index":1,"relevance":4,"evidence":3}]`

func assertTestBatchScores(t *testing.T, scores []PaperScores) {
	t.Helper()
	require.Len(t, scores, 2)
	require.NotNil(t, scores[0].Relevance)
	assert.Equal(t, 8, *scores[0].Relevance)
	require.NotNil(t, scores[1].Evidence)
	assert.Equal(t, 3, *scores[1].Evidence)
}

func TestOpenAIScorer_ScoreBatch(t *testing.T) {
	t.Run("parses scores from a successful response", func(t *testing.T) {
		var gotReq chatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			resp := chatResponse{
				Choices: []chatChoice{
					{Message: chatMessage{Role: "assistant", Content: scoreArrayJSON}},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		scorer := NewOpenAIScorer(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		}, 0.3, 10*time.Second, 0)

		scores, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.NoError(t, err)
		assertTestBatchScores(t, scores)

		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, "system", gotReq.Messages[0].Role)
		assert.Contains(t, gotReq.Messages[1].Content, "Title: Paper A")
	})

	t.Run("retries transient errors", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
				return
			}
			resp := chatResponse{
				Choices: []chatChoice{{Message: chatMessage{Content: scoreArrayJSON}}},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		scorer := NewOpenAIScorer(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 0.3, 10*time.Second, 2)
		scorer.retryDelay = time.Millisecond

		scores, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assertTestBatchScores(t, scores)
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
		}))
		defer server.Close()

		scorer := NewOpenAIScorer(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 0.3, 10*time.Second, 3)
		scorer.retryDelay = time.Millisecond

		_, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.Error(t, err)
		assert.Equal(t, 1, calls)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "openai", apiErr.Provider)
		assert.Equal(t, "bad key", apiErr.Message)
		assert.Equal(t, "invalid_api_key", apiErr.Code)
	})

	t.Run("rejects unparseable model output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := chatResponse{
				Choices: []chatChoice{{Message: chatMessage{Content: "sorry, cannot comply"}}},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		scorer := NewOpenAIScorer(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 0.3, 10*time.Second, 0)

		_, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing score array")
	})

	t.Run("applies model default", func(t *testing.T) {
		scorer := NewOpenAIScorer(OpenAIConfig{APIKey: "k"}, 0.3, 0, -1)
		assert.Equal(t, defaultOpenAIModel, scorer.Model())
		assert.Equal(t, "openai", scorer.Provider())
	})
}

func TestGeminiScorer_ScoreBatch(t *testing.T) {
	t.Run("parses scores from a successful response", func(t *testing.T) {
		var gotPath, gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-goog-api-key")

			resp := generateResponse{
				Candidates: []geminiCandidate{
					{
						Content: geminiContent{
							Role:  "model",
							Parts: []geminiPart{{Text: "```json\n" + scoreArrayJSON + "\n```"}},
						},
						FinishReason: "STOP",
					},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		scorer := NewGeminiScorer(GeminiConfig{
			APIKey:  "gemini-key",
			Model:   "gemini-2.5-flash",
			BaseURL: server.URL,
		}, 0.3, 10*time.Second, 0)

		scores, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.NoError(t, err)
		assertTestBatchScores(t, scores)

		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
		assert.Equal(t, "gemini-key", gotKey)
	})

	t.Run("surfaces API errors with status detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`))
		}))
		defer server.Close()

		scorer := NewGeminiScorer(GeminiConfig{APIKey: "k", BaseURL: server.URL}, 0.3, 10*time.Second, 0)

		_, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "gemini", apiErr.Provider)
		assert.Equal(t, "invalid argument", apiErr.Message)
		assert.Equal(t, "INVALID_ARGUMENT", apiErr.Type)
	})

	t.Run("empty candidates is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewEncoder(w).Encode(generateResponse{}))
		}))
		defer server.Close()

		scorer := NewGeminiScorer(GeminiConfig{APIKey: "k", BaseURL: server.URL}, 0.3, 10*time.Second, 0)

		_, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty candidates")
	})

	t.Run("applies defaults", func(t *testing.T) {
		scorer := NewGeminiScorer(GeminiConfig{APIKey: "k"}, 0.3, 0, -1)
		assert.Equal(t, defaultGeminiModel, scorer.Model())
		assert.Equal(t, "gemini", scorer.Provider())
	})
}

func TestAnthropicScorer_ScoreBatch(t *testing.T) {
	t.Run("parses scores from the first text block", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/messages", r.URL.Path)
			assert.Equal(t, "claude-key", r.Header.Get("x-api-key"))
			assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

			resp := messagesResponse{
				Content: []contentBlock{{Type: "text", Text: scoreArrayJSON}},
			}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		scorer := NewAnthropicScorer(AnthropicConfig{
			APIKey:  "claude-key",
			Model:   "claude-sonnet",
			BaseURL: server.URL,
		}, 0.3, 10*time.Second, 0)

		scores, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.NoError(t, err)
		assertTestBatchScores(t, scores)
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
		}))
		defer server.Close()

		scorer := NewAnthropicScorer(AnthropicConfig{APIKey: "k", BaseURL: server.URL}, 0.3, 10*time.Second, 0)

		_, err := scorer.ScoreBatch(context.Background(), testBatch)
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "anthropic", apiErr.Provider)
		assert.Equal(t, "bad request", apiErr.Message)
	})
}

func TestNewScorer(t *testing.T) {
	t.Run("creates provider by name", func(t *testing.T) {
		tests := []struct {
			provider string
		}{
			{"gemini"},
			{"openai"},
			{"anthropic"},
		}

		for _, tt := range tests {
			t.Run(tt.provider, func(t *testing.T) {
				scorer, err := NewScorer(FactoryConfig{Provider: tt.provider})
				require.NoError(t, err)
				assert.Equal(t, tt.provider, scorer.Provider())
			})
		}
	})

	t.Run("unknown provider is a config error", func(t *testing.T) {
		_, err := NewScorer(FactoryConfig{Provider: "bard"})
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrConfig)
		assert.Contains(t, err.Error(), "bard")
	})
}

func TestAPIError_IsTransient(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"network error", 0, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{Provider: "test", StatusCode: tt.status}
			assert.Equal(t, tt.transient, err.IsTransient())
			assert.Equal(t, tt.transient, isTransientError(err))
		})
	}
}
