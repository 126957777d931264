package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-digest-service/internal/rss"
)

// Helper to create feed items for seen-tracking tests.
func newTestFeedItems(guids ...string) []rss.Item {
	items := make([]rss.Item, len(guids))
	for i, guid := range guids {
		items[i] = rss.Item{
			GUID:   guid,
			Source: "Lifespan.io",
			Title:  "Senolytics update",
			URL:    "https://www.lifespan.io/news/" + guid,
		}
	}
	return items
}

func TestNewPgNewsSeenRepository(t *testing.T) {
	t.Run("creates repository with mock db", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)
		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestPgNewsSeenRepository_SeenGUIDs(t *testing.T) {
	ctx := context.Background()
	since := time.Now().UTC().Add(-90 * 24 * time.Hour)

	t.Run("returns seen GUIDs as a set", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		rows := pgxmock.NewRows([]string{"guid"}).
			AddRow("guid-a").
			AddRow("guid-b")
		mock.ExpectQuery("SELECT guid").
			WithArgs(since).
			WillReturnRows(rows)

		guids, err := repo.SeenGUIDs(ctx, since)
		require.NoError(t, err)

		assert.Len(t, guids, 2)
		assert.Contains(t, guids, "guid-a")
		assert.Contains(t, guids, "guid-b")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty set when nothing was posted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		mock.ExpectQuery("SELECT guid").
			WithArgs(since).
			WillReturnRows(pgxmock.NewRows([]string{"guid"}))

		guids, err := repo.SeenGUIDs(ctx, since)
		require.NoError(t, err)
		assert.Empty(t, guids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		mock.ExpectQuery("SELECT guid").
			WithArgs(since).
			WillReturnError(errors.New("connection refused"))

		_, err = repo.SeenGUIDs(ctx, since)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query seen items")
	})

	t.Run("reports row iteration errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		rows := pgxmock.NewRows([]string{"guid"}).
			AddRow("guid-a").
			RowError(0, errors.New("broken pipe"))
		mock.ExpectQuery("SELECT guid").
			WithArgs(since).
			WillReturnRows(rows)

		_, err = repo.SeenGUIDs(ctx, since)
		require.Error(t, err)
	})
}

func TestPgNewsSeenRepository_MarkSeen(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts all items in one batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)
		items := newTestFeedItems("guid-a", "guid-b")

		batch := mock.ExpectBatch()
		for _, item := range items {
			batch.ExpectExec("INSERT INTO news_seen_items").
				WithArgs(item.GUID, item.Source, item.Title, item.URL, pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}

		err = repo.MarkSeen(ctx, items)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty item list is a no-op", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		err = repo.MarkSeen(ctx, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps batch execution errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)
		items := newTestFeedItems("guid-a")

		batch := mock.ExpectBatch()
		batch.ExpectExec("INSERT INTO news_seen_items").
			WithArgs(items[0].GUID, items[0].Source, items[0].Title, items[0].URL, pgxmock.AnyArg()).
			WillReturnError(errors.New("deadlock detected"))

		err = repo.MarkSeen(ctx, items)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "guid-a")
	})
}

func TestPgNewsSeenRepository_DeleteSeenBefore(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-90 * 24 * time.Hour)

	t.Run("prunes rows and reports the count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		mock.ExpectExec("DELETE FROM news_seen_items").
			WithArgs(cutoff).
			WillReturnResult(pgxmock.NewResult("DELETE", 7))

		deleted, err := repo.DeleteSeenBefore(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(7), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps delete errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgNewsSeenRepository(mock)

		mock.ExpectExec("DELETE FROM news_seen_items").
			WithArgs(cutoff).
			WillReturnError(errors.New("relation does not exist"))

		_, err = repo.DeleteSeenBefore(ctx, cutoff)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to prune seen items")
	})
}
