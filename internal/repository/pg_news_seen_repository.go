package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/literature-digest-service/internal/rss"
)

// Compile-time interface verification.
var _ NewsSeenRepository = (*PgNewsSeenRepository)(nil)

// PgNewsSeenRepository is a PostgreSQL implementation of NewsSeenRepository.
type PgNewsSeenRepository struct {
	db DBTX
}

// NewPgNewsSeenRepository creates a new PostgreSQL seen-item repository.
func NewPgNewsSeenRepository(db DBTX) *PgNewsSeenRepository {
	return &PgNewsSeenRepository{db: db}
}

// SeenGUIDs returns the GUIDs of items posted since the cutoff.
func (r *PgNewsSeenRepository) SeenGUIDs(ctx context.Context, since time.Time) (map[string]struct{}, error) {
	query := `
		SELECT guid
		FROM news_seen_items
		WHERE posted_at >= $1`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen items: %w", err)
	}
	defer rows.Close()

	guids := make(map[string]struct{})
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, fmt.Errorf("failed to scan seen item: %w", err)
		}
		guids[guid] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seen items: %w", err)
	}

	return guids, nil
}

// MarkSeen records items as posted. Conflicting GUIDs are left untouched so
// the original posted_at is preserved. Uses pgx.Batch to send all inserts
// in a single network roundtrip.
func (r *PgNewsSeenRepository) MarkSeen(ctx context.Context, items []rss.Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO news_seen_items (guid, source, title, url, posted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guid) DO NOTHING`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.GUID, item.Source, item.Title, item.URL, now)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to mark item %s seen: %w", items[i].GUID, err)
		}
	}

	return nil
}

// DeleteSeenBefore prunes tracking rows posted before the cutoff.
func (r *PgNewsSeenRepository) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM news_seen_items WHERE posted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune seen items: %w", err)
	}
	return result.RowsAffected(), nil
}
