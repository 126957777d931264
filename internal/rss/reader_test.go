package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/papersources"
)

// newTestReader builds a reader whose HTTP client does not retry or rate
// limit, keeping tests fast.
func newTestReader(t *testing.T) *Reader {
	t.Helper()
	client := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		RateLimit:  1000,
		BurstSize:  100,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	return NewReaderWithHTTPClient(client, zerolog.Nop())
}

// feedXML renders a minimal RSS 2.0 feed with one item per (title, pubDate)
// pair.
func feedXML(channel string, entries ...[2]string) string {
	body := fmt.Sprintf("<rss version=\"2.0\"><channel><title>%s</title><link>https://example.org</link>", channel)
	for i, e := range entries {
		body += fmt.Sprintf(
			"<item><title>%s</title><link>https://example.org/%d</link><guid>%s-%d</guid><pubDate>%s</pubDate></item>",
			e[0], i, channel, i, e[1])
	}
	return body + "</channel></rss>"
}

func TestReader_Fetch(t *testing.T) {
	t.Run("fetches and parses a feed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, feedXML("Lifespan.io", [2]string{"Senolytics news", "Fri, 21 Aug 2026 09:30:00 +0000"}))
		}))
		defer server.Close()

		reader := newTestReader(t)
		items, err := reader.Fetch(context.Background(), Feed{Name: "Lifespan.io", URL: server.URL})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Senolytics news", items[0].Title)
		assert.Equal(t, "Lifespan.io", items[0].Source)
	})

	t.Run("reports non-200 responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		reader := newTestReader(t)
		_, err := reader.Fetch(context.Background(), Feed{Name: "blocked", URL: server.URL})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})
}

func TestReader_FetchAll(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-2 * time.Hour).Format(time.RFC1123Z)
	older := now.Add(-6 * time.Hour).Format(time.RFC1123Z)
	stale := now.Add(-80 * time.Hour).Format(time.RFC1123Z)

	t.Run("merges feeds, drops stale items, sorts newest first", func(t *testing.T) {
		feedA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, feedXML("A", [2]string{"older item", older}, [2]string{"stale item", stale}))
		}))
		defer feedA.Close()

		feedB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, feedXML("B", [2]string{"recent item", recent}))
		}))
		defer feedB.Close()

		reader := newTestReader(t)
		items := reader.FetchAll(context.Background(), []Feed{
			{Name: "A", URL: feedA.URL},
			{Name: "B", URL: feedB.URL},
		}, now.Add(-24*time.Hour))

		require.Len(t, items, 2)
		assert.Equal(t, "recent item", items[0].Title)
		assert.Equal(t, "older item", items[1].Title)
	})

	t.Run("keeps undated items and sorts them last", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, feedXML("A", [2]string{"dated", recent}, [2]string{"undated", ""}))
		}))
		defer server.Close()

		reader := newTestReader(t)
		items := reader.FetchAll(context.Background(), []Feed{{Name: "A", URL: server.URL}}, now.Add(-24*time.Hour))

		require.Len(t, items, 2)
		assert.Equal(t, "dated", items[0].Title)
		assert.Equal(t, "undated", items[1].Title)
	})

	t.Run("a broken feed does not sink the others", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer broken.Close()

		healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, feedXML("B", [2]string{"still here", recent}))
		}))
		defer healthy.Close()

		reader := newTestReader(t)
		items := reader.FetchAll(context.Background(), []Feed{
			{Name: "broken", URL: broken.URL},
			{Name: "B", URL: healthy.URL},
		}, now.Add(-24*time.Hour))

		require.Len(t, items, 1)
		assert.Equal(t, "still here", items[0].Title)
	})
}
