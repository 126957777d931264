package altmetric

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/papersources"
)

const doiResponseJSON = `{
	"doi": "10.1234/jger.2026.001",
	"score": 42.5,
	"cited_by_tweeters_count": 17,
	"cited_by_msm_count": 3
}`

func TestClient_AttentionByDOI(t *testing.T) {
	t.Run("returns attention for known DOI", func(t *testing.T) {
		var requestPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(doiResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL)

		attention, err := client.AttentionByDOI(context.Background(), "10.1234/jger.2026.001")
		require.NoError(t, err)

		assert.Contains(t, requestPath, "/doi/10.1234")
		assert.Equal(t, 42.5, attention.Score)
		assert.Equal(t, 17, attention.Tweeters)
		assert.Equal(t, 3, attention.News)
	})

	t.Run("404 returns zeros without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Not Found"))
		}))
		defer server.Close()

		client := createTestClient(server.URL)

		attention, err := client.AttentionByDOI(context.Background(), "10.9999/unknown")
		require.NoError(t, err)
		assert.Zero(t, attention.Score)
		assert.Zero(t, attention.Tweeters)
		assert.Zero(t, attention.News)
	})

	t.Run("empty DOI returns zeros without calling the API", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected API call for empty DOI")
		}))
		defer server.Close()

		client := createTestClient(server.URL)

		attention, err := client.AttentionByDOI(context.Background(), "   ")
		require.NoError(t, err)
		assert.Zero(t, attention.Score)
	})

	t.Run("disabled client returns zeros without calling the API", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected API call while disabled")
		}))
		defer server.Close()

		httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 1000, BurstSize: 100})
		client := NewWithHTTPClient(Config{BaseURL: server.URL, Enabled: false}, httpClient)

		attention, err := client.AttentionByDOI(context.Background(), "10.1234/jger.2026.001")
		require.NoError(t, err)
		assert.Zero(t, attention.Score)
	})

	t.Run("unexpected status surfaces an API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("rate plan exceeded"))
		}))
		defer server.Close()

		client := createTestClient(server.URL)

		_, err := client.AttentionByDOI(context.Background(), "10.1234/jger.2026.001")
		require.Error(t, err)

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})

	t.Run("sends API key when configured", func(t *testing.T) {
		var receivedKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedKey = r.URL.Query().Get("key")
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 1000, BurstSize: 100})
		client := NewWithHTTPClient(Config{
			BaseURL: server.URL,
			APIKey:  "secret-key",
			Enabled: true,
		}, httpClient)

		_, err := client.AttentionByDOI(context.Background(), "10.1234/x")
		require.NoError(t, err)
		assert.Equal(t, "secret-key", receivedKey)
	})
}

func TestClient_Enrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(doiResponseJSON))
	}))
	defer server.Close()

	client := createTestClient(server.URL)

	paper := &domain.Paper{DOI: "10.1234/jger.2026.001", Title: "Test"}
	require.NoError(t, client.Enrich(context.Background(), paper))

	assert.Equal(t, 42.5, paper.AltmetricScore)
	assert.Equal(t, 17, paper.AltmetricTweeters)
	assert.Equal(t, 3, paper.AltmetricNews)
}

// createTestClient creates a test client pointed at a mock server.
func createTestClient(baseURL string) *Client {
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  100,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})

	return NewWithHTTPClient(Config{
		BaseURL: baseURL,
		Enabled: true,
	}, httpClient)
}
