// Package pipeline orchestrates a digest run end to end: topic resolution,
// query building, candidate fetch, deduplication, enrichment, triage
// scoring, aggregation, persistence, and delivery. The runner owns the run
// lifecycle; the stages themselves live in their own packages and stay free
// of orchestration concerns.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/observability"
	"github.com/helixir/literature-digest-service/internal/papersources"
	"github.com/helixir/literature-digest-service/internal/query"
	"github.com/helixir/literature-digest-service/internal/repository"
	"github.com/helixir/literature-digest-service/internal/scoring"
	"github.com/helixir/literature-digest-service/internal/topics"
)

// Default orchestration settings.
const (
	// DefaultDedupLookback is how far back RecentPublishedIDs reaches when
	// filtering papers already published in earlier digests.
	DefaultDedupLookback = 30 * 24 * time.Hour

	// DefaultEnrichConcurrency bounds concurrent Altmetric lookups.
	DefaultEnrichConcurrency = 4

	// DefaultMaxResults caps candidates fetched per source.
	DefaultMaxResults = 200
)

// Enricher annotates a paper with attention signals. Failures are per-paper
// and never abort a run.
type Enricher interface {
	Enrich(ctx context.Context, paper *domain.Paper) error
	IsEnabled() bool
}

// Scorer assigns triage dimensions to a candidate batch. The returned slice
// excludes papers dropped by the author block list; a partial-failure error
// leaves the affected papers unscored.
type Scorer interface {
	ScoreAll(ctx context.Context, papers []*domain.Paper, useFrontier bool) ([]*domain.Paper, error)
}

// EventSink receives run lifecycle notifications. Delivery failures are
// logged, never fatal.
type EventSink interface {
	RunStarted(ctx context.Context, run *domain.DigestRun) error
	RunCompleted(ctx context.Context, run *domain.DigestRun) error
	RunFailed(ctx context.Context, run *domain.DigestRun, cause string) error
}

// Poster delivers the finished digest to an output channel.
type Poster interface {
	Enabled() bool
	PostDigest(ctx context.Context, result *domain.DigestResult) error
	PostNoPapers(ctx context.Context, variant domain.Variant, days int) error
	PostError(ctx context.Context, variant domain.Variant, cause string) error
}

// VariantConfig is the per-variant orchestration configuration. Preset
// overrides from the registry (days back, max results, exclusions) are
// applied on top at run time.
type VariantConfig struct {
	// Preset names the topic selection. Empty selects every active topic.
	Preset string

	// DaysBack is the publication window searched.
	DaysBack int

	// MaxResults caps candidates fetched per source.
	MaxResults int

	// Scoring holds the variant's threshold, dimensions, and top-N cap.
	Scoring scoring.Config

	// IncludePreprints adds the preprint servers to the fetch stage.
	IncludePreprints bool

	// DedupLookback is the window for cross-run publication dedup.
	DedupLookback time.Duration

	// EnrichConcurrency bounds concurrent enrichment lookups.
	EnrichConcurrency int
}

// applyDefaults fills in zero values with defaults.
func (c *VariantConfig) applyDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.DedupLookback == 0 {
		c.DedupLookback = DefaultDedupLookback
	}
	if c.EnrichConcurrency == 0 {
		c.EnrichConcurrency = DefaultEnrichConcurrency
	}
}

// DailyConfig returns the daily variant defaults: a 7-day window scored on
// relevance and evidence, publishing the top 5 at threshold 15.
func DailyConfig() VariantConfig {
	return VariantConfig{
		DaysBack: 7,
		Scoring:  scoring.Config{Threshold: 15, TopN: 5},
	}
}

// FrontierConfig returns the frontier variant defaults: a 14-day window
// including preprints, scored on all four dimensions, publishing the top 7
// at threshold 12 with a minimum frontier score of 6.
func FrontierConfig() VariantConfig {
	return VariantConfig{
		DaysBack:         14,
		IncludePreprints: true,
		Scoring: scoring.Config{
			Threshold:        12,
			UseFrontier:      true,
			MinFrontierScore: 6,
			TopN:             7,
		},
	}
}

// Deps bundles the runner's collaborators.
type Deps struct {
	Registry *topics.Registry
	Sources  []papersources.PaperSource
	Enricher Enricher
	Scorer   Scorer
	Runs     repository.RunRepository
	Events   EventSink
	Poster   Poster
	Metrics  *observability.Metrics
	Logger   zerolog.Logger
}

// Runner executes digest runs. It is stateless between runs and safe for
// concurrent use; overlap prevention for scheduled runs is the scheduler's
// concern.
type Runner struct {
	registry *topics.Registry
	sources  []papersources.PaperSource
	enricher Enricher
	scorer   Scorer
	runs     repository.RunRepository
	events   EventSink
	poster   Poster
	metrics  *observability.Metrics
	logger   zerolog.Logger
	configs  map[domain.Variant]VariantConfig
}

// NewRunner creates a runner with the default variant configurations.
func NewRunner(deps Deps) *Runner {
	return &Runner{
		registry: deps.Registry,
		sources:  deps.Sources,
		enricher: deps.Enricher,
		scorer:   deps.Scorer,
		runs:     deps.Runs,
		events:   deps.Events,
		poster:   deps.Poster,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With().Str("component", "pipeline").Logger(),
		configs: map[domain.Variant]VariantConfig{
			domain.VariantDaily:    DailyConfig(),
			domain.VariantFrontier: FrontierConfig(),
		},
	}
}

// SetVariantConfig replaces the configuration for one variant.
func (r *Runner) SetVariantConfig(variant domain.Variant, cfg VariantConfig) {
	r.configs[variant] = cfg
}

// Run executes one digest run for the given variant and returns its result.
// The run record is persisted in the running state before any fetching
// starts and is closed as completed or failed; a returned error means the
// run was marked failed (or could not be created at all).
func (r *Runner) Run(ctx context.Context, variant domain.Variant) (*domain.DigestResult, error) {
	cfg, ok := r.configs[variant]
	if !ok {
		return nil, fmt.Errorf("no configuration for variant %q: %w", variant, domain.ErrInvalidInput)
	}
	cfg.applyDefaults()

	startedAt := time.Now()

	run, topicList, err := r.prepareRun(ctx, variant, &cfg)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithRun(ctx, run.ID.String(), string(variant))
	logger := observability.WithRunContext(r.logger, run.ID.String(), string(variant), run.Preset)

	r.metrics.RunsStarted.WithLabelValues(string(variant)).Inc()
	if r.events != nil {
		if err := r.events.RunStarted(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("failed to publish run started event")
		}
	}
	logger.Info().Int("days_back", run.DaysBack).Int("query_chars", len(run.Query)).Msg("digest run started")

	result, err := r.execute(ctx, run, cfg, topicList, logger)
	if err != nil {
		r.failRun(ctx, run, err, logger)
		r.metrics.RunsFailed.WithLabelValues(string(variant)).Inc()
		return nil, err
	}

	r.metrics.RunsCompleted.WithLabelValues(string(variant)).Inc()
	r.metrics.RunDuration.WithLabelValues(string(variant)).Observe(time.Since(startedAt).Seconds())
	logger.Info().
		Int("fetched", run.PapersFetched).
		Int("scored", run.PapersScored).
		Int("published", run.PapersPublished).
		Msg("digest run completed")

	return result, nil
}

// prepareRun resolves the topic selection, builds the search query, applies
// preset overrides, and persists the run record in the running state.
func (r *Runner) prepareRun(ctx context.Context, variant domain.Variant, cfg *VariantConfig) (*domain.DigestRun, []domain.Topic, error) {
	topicList, err := r.registry.ListActive(cfg.Preset)
	if err != nil {
		return nil, nil, err
	}
	if len(topicList) == 0 {
		return nil, nil, domain.NewConfigError("topics",
			fmt.Sprintf("preset %q selects no active topics", presetLabel(cfg.Preset)))
	}

	var exclusions []string
	if preset, err := r.registry.Preset(cfg.Preset); err == nil {
		if preset.DaysBack > 0 {
			cfg.DaysBack = preset.DaysBack
		}
		if preset.MaxResults > 0 {
			cfg.MaxResults = preset.MaxResults
		}
		exclusions = preset.Exclusions
	}

	q, err := query.BuildSearchQuery(topicList, r.registry, query.SearchOptions{
		IncludeBaseFilter: true,
		Exclusions:        exclusions,
	})
	if err != nil {
		return nil, nil, err
	}

	if report := query.Validate(q); !report.Valid {
		for _, w := range report.Warnings {
			r.logger.Warn().Str("variant", string(variant)).Str("warning", w).Msg("query validation warning")
		}
	}

	run := &domain.DigestRun{
		Variant:  variant,
		Preset:   presetLabel(cfg.Preset),
		Query:    q,
		DaysBack: cfg.DaysBack,
	}
	if err := r.runs.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to create digest run: %w", err)
	}

	return run, topicList, nil
}

// execute runs the fetch-through-delivery stages against an already
// persisted run record.
func (r *Runner) execute(ctx context.Context, run *domain.DigestRun, cfg VariantConfig, topicList []domain.Topic, logger zerolog.Logger) (*domain.DigestResult, error) {
	papers, err := r.fetch(ctx, run, cfg, topicList, logger)
	if err != nil {
		return nil, err
	}
	run.PapersFetched = len(papers)

	annotateTopics(papers, topicList)

	papers, duplicates := dedupePapers(papers)

	published, err := r.runs.RecentPublishedIDs(ctx, run.Variant, run.StartedAt.Add(-cfg.DedupLookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load recently published IDs: %w", err)
	}
	papers, republished := dropPublished(papers, published)

	if dropped := duplicates + republished; dropped > 0 {
		r.metrics.PapersDeduplicated.Add(float64(dropped))
		logger.Debug().Int("duplicates", duplicates).Int("already_published", republished).Msg("dropped duplicate candidates")
	}

	if len(papers) == 0 {
		return r.finish(ctx, run, nil, logger)
	}

	r.enrich(ctx, papers, cfg, logger)

	scored, err := r.scorer.ScoreAll(ctx, papers, cfg.Scoring.UseFrontier)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Partial scoring failures leave papers unscored; they are skipped
		// below rather than sinking the run.
		logger.Warn().Err(err).Msg("triage scoring partially failed")
	}

	complete := make([]domain.Paper, 0, len(scored))
	for _, p := range scored {
		if !fullyScored(p, cfg.Scoring.UseFrontier) {
			r.metrics.PapersSkipped.WithLabelValues("unscored").Inc()
			continue
		}
		complete = append(complete, *p)
	}
	run.PapersScored = len(complete)
	r.metrics.PapersScored.Add(float64(len(complete)))

	aggregator := scoring.NewAggregator(cfg.Scoring, r.registry.Priorities())
	ranked, err := aggregator.AggregateAll(complete)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}
	for i := range ranked {
		r.metrics.CombinedScores.WithLabelValues(string(run.Variant)).Observe(float64(ranked[i].CombinedScore))
	}

	return r.finish(ctx, run, aggregator.Select(ranked), logger)
}

// fetch searches every applicable source and merges the results. A primary
// source failure aborts the run; preprint servers are best-effort and only
// log a warning, matching their role as a frontier-variant supplement.
func (r *Runner) fetch(ctx context.Context, run *domain.DigestRun, cfg VariantConfig, topicList []domain.Topic, logger zerolog.Logger) ([]*domain.Paper, error) {
	since := run.StartedAt.AddDate(0, 0, -run.DaysBack)
	params := papersources.SearchParams{
		Query:      run.Query,
		Terms:      searchTerms(topicList),
		Since:      &since,
		MaxResults: cfg.MaxResults,
	}

	var papers []*domain.Paper
	for _, src := range r.sources {
		if !src.IsEnabled() {
			continue
		}
		if isPreprintSource(src.Name()) && !cfg.IncludePreprints {
			continue
		}

		result, err := src.Search(ctx, params)
		if err != nil {
			if isPreprintSource(src.Name()) {
				logger.Warn().Err(err).Str("source", src.Name()).Msg("preprint search failed")
				continue
			}
			return nil, fmt.Errorf("failed to search %s: %w", src.Name(), err)
		}

		r.metrics.PapersFetched.WithLabelValues(src.Name()).Add(float64(len(result.Papers)))
		logger.Debug().
			Str("source", src.Name()).
			Int("papers", len(result.Papers)).
			Dur("duration", result.SearchDuration).
			Msg("source search completed")
		papers = append(papers, result.Papers...)
	}

	return papers, nil
}

// enrich annotates papers with Altmetric attention signals using a bounded
// worker group. Lookup failures leave the paper with zero attention and are
// logged; attention is a tie-breaker, not a requirement.
func (r *Runner) enrich(ctx context.Context, papers []*domain.Paper, cfg VariantConfig, logger zerolog.Logger) {
	if r.enricher == nil || !r.enricher.IsEnabled() {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.EnrichConcurrency)
	for _, paper := range papers {
		g.Go(func() error {
			if err := r.enricher.Enrich(gctx, paper); err != nil {
				logger.Warn().Err(err).Str("paper", paperLabel(paper)).Msg("altmetric enrichment failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// finish persists the selection, closes the run as completed, delivers the
// digest, and publishes the completion event. Delivery and event failures
// are logged but do not fail an otherwise complete run.
func (r *Runner) finish(ctx context.Context, run *domain.DigestRun, selected []domain.RankedPaper, logger zerolog.Logger) (*domain.DigestResult, error) {
	run.PapersPublished = len(selected)

	if len(selected) > 0 {
		if err := r.runs.AddPapers(ctx, run.ID, selected); err != nil {
			return nil, fmt.Errorf("failed to persist digest papers: %w", err)
		}
	}
	if err := r.runs.CompleteRun(ctx, run.ID, run.PapersFetched, run.PapersScored, run.PapersPublished); err != nil {
		return nil, fmt.Errorf("failed to complete digest run: %w", err)
	}

	run.Status = domain.RunStatusCompleted
	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt

	r.metrics.PapersPublished.WithLabelValues(string(run.Variant)).Add(float64(len(selected)))

	result := &domain.DigestResult{Run: *run, Papers: selected}
	r.deliver(ctx, result, logger)

	if r.events != nil {
		if err := r.events.RunCompleted(ctx, run); err != nil {
			logger.Warn().Err(err).Msg("failed to publish run completed event")
		}
	}

	return result, nil
}

// deliver posts the digest, or the no-papers notice when the selection is
// empty.
func (r *Runner) deliver(ctx context.Context, result *domain.DigestResult, logger zerolog.Logger) {
	if r.poster == nil || !r.poster.Enabled() {
		return
	}

	var err error
	if len(result.Papers) == 0 {
		err = r.poster.PostNoPapers(ctx, result.Run.Variant, result.Run.DaysBack)
	} else {
		err = r.poster.PostDigest(ctx, result)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed to post digest")
		return
	}
	r.metrics.DigestsPosted.WithLabelValues("slack").Inc()
}

// failRun closes the run as failed and sends the failure notifications.
// Everything here is best effort; the original error is what the caller
// reports.
func (r *Runner) failRun(ctx context.Context, run *domain.DigestRun, cause error, logger zerolog.Logger) {
	logger.Error().Err(cause).Msg("digest run failed")

	if err := r.runs.FailRun(ctx, run.ID, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("failed to mark run as failed")
	}
	if r.events != nil {
		if err := r.events.RunFailed(ctx, run, cause.Error()); err != nil {
			logger.Warn().Err(err).Msg("failed to publish run failed event")
		}
	}
	if r.poster != nil && r.poster.Enabled() {
		if err := r.poster.PostError(ctx, run.Variant, cause.Error()); err != nil {
			logger.Warn().Err(err).Msg("failed to post error notice")
		}
	}
}

// fullyScored reports whether the paper carries every dimension the variant
// aggregates.
func fullyScored(p *domain.Paper, useFrontier bool) bool {
	if p.Relevance == nil || p.Evidence == nil {
		return false
	}
	return !useFrontier || p.Frontier != nil
}

// isPreprintSource reports whether the source name is a preprint server.
func isPreprintSource(name string) bool {
	return name == domain.SourceBioRxiv || name == domain.SourceMedRxiv
}

// paperLabel returns a short identifier for log lines.
func paperLabel(p *domain.Paper) string {
	if id := p.CanonicalID(); id != "" {
		return id
	}
	if len(p.Title) > 60 {
		return p.Title[:60]
	}
	return p.Title
}

// presetLabel names the recorded preset, substituting the reserved all
// selection for the empty string.
func presetLabel(preset string) string {
	if strings.TrimSpace(preset) == "" {
		return domain.PresetAll
	}
	return preset
}
