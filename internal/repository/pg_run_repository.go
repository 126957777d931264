package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// Compile-time interface verification.
var _ RunRepository = (*PgRunRepository)(nil)

// PgRunRepository is a PostgreSQL implementation of RunRepository.
type PgRunRepository struct {
	db DBTX
}

// NewPgRunRepository creates a new PostgreSQL digest run repository.
func NewPgRunRepository(db DBTX) *PgRunRepository {
	return &PgRunRepository{db: db}
}

// CreateRun inserts a new digest run in the running state.
func (r *PgRunRepository) CreateRun(ctx context.Context, run *domain.DigestRun) error {
	if run == nil {
		return domain.NewValidationError("run", "run cannot be nil")
	}
	if _, err := domain.ParseVariant(string(run.Variant)); err != nil {
		return domain.NewValidationError("variant", "unknown pipeline variant")
	}

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = domain.RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO digest_runs (
			id, variant, preset, query, days_back, status,
			papers_fetched, papers_scored, papers_published, error, started_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.Exec(ctx, query,
		run.ID,
		run.Variant,
		run.Preset,
		run.Query,
		run.DaysBack,
		run.Status,
		run.PapersFetched,
		run.PapersScored,
		run.PapersPublished,
		run.Error,
		run.StartedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.NewAlreadyExistsError("digest run", run.ID.String())
		}
		return fmt.Errorf("failed to create digest run: %w", err)
	}

	return nil
}

// CompleteRun marks a run as completed and records its stage counters.
func (r *PgRunRepository) CompleteRun(ctx context.Context, id uuid.UUID, fetched, scored, published int) error {
	query := `
		UPDATE digest_runs
		SET status = $1, papers_fetched = $2, papers_scored = $3,
			papers_published = $4, completed_at = $5
		WHERE id = $6`

	result, err := r.db.Exec(ctx, query,
		domain.RunStatusCompleted, fetched, scored, published, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete digest run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("digest run", id.String())
	}

	return nil
}

// FailRun marks a run as failed and records the failure cause.
func (r *PgRunRepository) FailRun(ctx context.Context, id uuid.UUID, cause string) error {
	query := `
		UPDATE digest_runs
		SET status = $1, error = $2, completed_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(ctx, query,
		domain.RunStatusFailed, cause, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to fail digest run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("digest run", id.String())
	}

	return nil
}

// AddPapers attaches the run's ranked papers in digest order.
// Uses pgx.Batch to send all inserts in a single network roundtrip.
func (r *PgRunRepository) AddPapers(ctx context.Context, runID uuid.UUID, papers []domain.RankedPaper) error {
	if len(papers) == 0 {
		return nil
	}

	query := `
		INSERT INTO digest_run_papers (
			run_id, position, canonical_id, pmid, doi, title, abstract,
			authors, journal, publication_date, url, source,
			relevance, evidence, frontier,
			altmetric_score, altmetric_tweeters, altmetric_news,
			matched_topics, combined_score, passes_threshold, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)`

	now := time.Now().UTC()
	batch := &pgx.Batch{}

	for i, paper := range papers {
		authorsJSON, err := json.Marshal(paper.Authors)
		if err != nil {
			return fmt.Errorf("failed to marshal authors: %w", err)
		}
		topicsJSON, err := json.Marshal(paper.MatchedTopics)
		if err != nil {
			return fmt.Errorf("failed to marshal matched topics: %w", err)
		}

		batch.Queue(query,
			runID,
			i,
			paper.CanonicalID(),
			paper.PMID,
			paper.DOI,
			paper.Title,
			paper.Abstract,
			authorsJSON,
			paper.Journal,
			paper.PublicationDate,
			paper.URL,
			paper.Source,
			paper.Relevance,
			paper.Evidence,
			paper.Frontier,
			paper.AltmetricScore,
			paper.AltmetricTweeters,
			paper.AltmetricNews,
			topicsJSON,
			paper.CombinedScore,
			paper.PassesThreshold,
			now,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := range papers {
		if _, err := br.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return domain.NewNotFoundError("digest run", runID.String())
			}
			return fmt.Errorf("failed to insert run paper at index %d: %w", i, err)
		}
	}

	return nil
}

// GetRun retrieves a digest run by its ID.
func (r *PgRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*domain.DigestRun, error) {
	query := `
		SELECT id, variant, preset, query, days_back, status,
			papers_fetched, papers_scored, papers_published, error,
			started_at, completed_at
		FROM digest_runs
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("digest run", id.String())
		}
		return nil, fmt.Errorf("failed to get digest run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves digest runs matching the filter criteria, newest first.
func (r *PgRunRepository) ListRuns(ctx context.Context, filter RunFilter) ([]*domain.DigestRun, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	// Build dynamic WHERE clause
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Variant != nil {
		conditions = append(conditions, fmt.Sprintf("variant = $%d", argIndex))
		args = append(args, *filter.Variant)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.StartedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("started_at >= $%d", argIndex))
		args = append(args, *filter.StartedAfter)
		argIndex++
	}

	if filter.StartedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("started_at <= $%d", argIndex))
		args = append(args, *filter.StartedBefore)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM digest_runs %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count digest runs: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT id, variant, preset, query, days_back, status,
			papers_fetched, papers_scored, papers_published, error,
			started_at, completed_at
		FROM digest_runs
		%s
		ORDER BY started_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list digest runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.DigestRun, 0, filter.Limit)
	for rows.Next() {
		run, err := scanRunFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan digest run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating digest runs: %w", err)
	}

	return runs, totalCount, nil
}

// ListRunPapers retrieves a run's ranked papers in digest order.
func (r *PgRunRepository) ListRunPapers(ctx context.Context, runID uuid.UUID) ([]domain.RankedPaper, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT canonical_id, pmid, doi, title, abstract, authors, journal,
			publication_date, url, source, relevance, evidence, frontier,
			altmetric_score, altmetric_tweeters, altmetric_news,
			matched_topics, combined_score, passes_threshold
		FROM digest_run_papers
		WHERE run_id = $1
		ORDER BY position ASC`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.RankedPaper
	for rows.Next() {
		paper, err := scanRunPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run paper: %w", err)
		}
		papers = append(papers, *paper)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run papers: %w", err)
	}

	return papers, nil
}

// RecentPublishedIDs returns the canonical IDs of papers published by
// completed runs of the given variant since the cutoff.
func (r *PgRunRepository) RecentPublishedIDs(ctx context.Context, variant domain.Variant, since time.Time) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT p.canonical_id
		FROM digest_run_papers p
		INNER JOIN digest_runs r ON r.id = p.run_id
		WHERE r.variant = $1
			AND r.status = $2
			AND r.started_at >= $3
			AND p.passes_threshold`

	rows, err := r.db.Query(ctx, query, variant, domain.RunStatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent published IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan canonical ID: %w", err)
		}
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating published IDs: %w", err)
	}

	return ids, nil
}

// runScanDest holds the destination pointers for scanning a DigestRun row.
type runScanDest struct {
	run domain.DigestRun
}

// destinations returns the slice of pointers for Scan operations.
func (d *runScanDest) destinations() []interface{} {
	return []interface{}{
		&d.run.ID, &d.run.Variant, &d.run.Preset, &d.run.Query, &d.run.DaysBack,
		&d.run.Status, &d.run.PapersFetched, &d.run.PapersScored,
		&d.run.PapersPublished, &d.run.Error, &d.run.StartedAt, &d.run.CompletedAt,
	}
}

// scanRun scans a single row into a DigestRun.
func scanRun(row pgx.Row) (*domain.DigestRun, error) {
	var dest runScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return &dest.run, nil
}

// scanRunFromRows scans the current row from pgx.Rows into a DigestRun.
func scanRunFromRows(rows pgx.Rows) (*domain.DigestRun, error) {
	var dest runScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return &dest.run, nil
}

// runPaperScanDest holds the destination pointers for scanning a RankedPaper row.
type runPaperScanDest struct {
	paper       domain.RankedPaper
	canonicalID string
	authorsJSON []byte
	topicsJSON  []byte
}

// destinations returns the slice of pointers for Scan operations.
func (d *runPaperScanDest) destinations() []interface{} {
	return []interface{}{
		&d.canonicalID, &d.paper.PMID, &d.paper.DOI, &d.paper.Title, &d.paper.Abstract,
		&d.authorsJSON, &d.paper.Journal, &d.paper.PublicationDate, &d.paper.URL,
		&d.paper.Source, &d.paper.Relevance, &d.paper.Evidence, &d.paper.Frontier,
		&d.paper.AltmetricScore, &d.paper.AltmetricTweeters, &d.paper.AltmetricNews,
		&d.topicsJSON, &d.paper.CombinedScore, &d.paper.PassesThreshold,
	}
}

// finalize performs post-scan processing: unmarshals JSON fields.
func (d *runPaperScanDest) finalize() (*domain.RankedPaper, error) {
	if len(d.authorsJSON) > 0 {
		if err := json.Unmarshal(d.authorsJSON, &d.paper.Authors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authors: %w", err)
		}
	}

	if len(d.topicsJSON) > 0 {
		if err := json.Unmarshal(d.topicsJSON, &d.paper.MatchedTopics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal matched topics: %w", err)
		}
	}

	return &d.paper, nil
}

// scanRunPaper scans the current row from pgx.Rows into a RankedPaper.
func scanRunPaper(rows pgx.Rows) (*domain.RankedPaper, error) {
	var dest runPaperScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
