package repository

import (
	"context"
	"time"

	"github.com/helixir/literature-digest-service/internal/rss"
)

// NewsSeenRepository tracks which feed items the news roundup has already
// posted, so reruns and overlapping fetch windows do not repost them.
// It satisfies rss.SeenStore.
type NewsSeenRepository interface {
	// SeenGUIDs returns the GUIDs of items posted since the cutoff.
	SeenGUIDs(ctx context.Context, since time.Time) (map[string]struct{}, error)

	// MarkSeen records items as posted. Re-marking an already seen item
	// is not an error.
	MarkSeen(ctx context.Context, items []rss.Item) error

	// DeleteSeenBefore prunes tracking rows posted before the cutoff and
	// returns how many were removed.
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
