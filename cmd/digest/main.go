// Package main runs digest jobs: one-shot for a single paper variant or
// the news roundup, or as a long-running scheduler executing the
// configured cron expressions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-digest-service/internal/altmetric"
	"github.com/helixir/literature-digest-service/internal/config"
	"github.com/helixir/literature-digest-service/internal/database"
	"github.com/helixir/literature-digest-service/internal/digest"
	"github.com/helixir/literature-digest-service/internal/domain"
	"github.com/helixir/literature-digest-service/internal/events"
	"github.com/helixir/literature-digest-service/internal/llm"
	"github.com/helixir/literature-digest-service/internal/observability"
	"github.com/helixir/literature-digest-service/internal/papersources"
	"github.com/helixir/literature-digest-service/internal/papersources/biorxiv"
	"github.com/helixir/literature-digest-service/internal/papersources/pubmed"
	"github.com/helixir/literature-digest-service/internal/pipeline"
	"github.com/helixir/literature-digest-service/internal/repository"
	"github.com/helixir/literature-digest-service/internal/rss"
	"github.com/helixir/literature-digest-service/internal/scheduler"
	"github.com/helixir/literature-digest-service/internal/topics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	variantFlag := flag.String("variant", "", "Run one digest for the given variant (daily or frontier) and exit")
	newsFlag := flag.Bool("news", false, "Run one news roundup and exit")
	scheduleFlag := flag.Bool("schedule", false, "Run as a scheduler using the configured cron expressions")
	flag.Parse()

	modes := 0
	for _, set := range []bool{*variantFlag != "", *newsFlag, *scheduleFlag} {
		if set {
			modes++
		}
	}
	if modes == 0 {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nPlease specify -variant daily|frontier, -news, or -schedule")
		return fmt.Errorf("no mode specified")
	}
	if modes > 1 {
		return fmt.Errorf("-variant, -news, and -schedule are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "digest").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	registry, err := topics.Load(cfg.Topics.TopicsPath, cfg.Topics.PresetsPath, cfg.Topics.AuthorLists())
	if err != nil {
		return fmt.Errorf("load topic registry: %w", err)
	}

	runRepo := repository.NewPgRunRepository(db)

	publisher := events.NewPublisher(events.Config{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		ServiceName: cfg.Kafka.ServiceName,
		Enabled:     cfg.Kafka.Enabled,
	}, logger)
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	runner, err := buildRunner(cfg, registry, runRepo, publisher, logger)
	if err != nil {
		return err
	}

	if *newsFlag {
		return runNewsOnce(ctx, buildNewsDigest(cfg, db, logger), logger)
	}
	if *variantFlag != "" {
		return runOnce(ctx, runner, *variantFlag, logger)
	}
	return runScheduled(ctx, cfg, runner, db, logger)
}

// runOnce executes a single digest run and exits.
func runOnce(ctx context.Context, runner *pipeline.Runner, variantName string, logger zerolog.Logger) error {
	variant, err := domain.ParseVariant(variantName)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, variant)
	if err != nil {
		return fmt.Errorf("digest run failed: %w", err)
	}

	logger.Info().
		Str("run_id", result.Run.ID.String()).
		Str("variant", string(variant)).
		Int("papers_published", len(result.Papers)).
		Msg("digest run completed")
	return nil
}

// runNewsOnce executes a single news roundup and exits.
func runNewsOnce(ctx context.Context, news *rss.NewsDigest, logger zerolog.Logger) error {
	stats, err := news.Run(ctx)
	if err != nil {
		return fmt.Errorf("news roundup failed: %w", err)
	}

	logger.Info().
		Int("fetched", stats.Fetched).
		Int("fresh", stats.Fresh).
		Int("posted", stats.Posted).
		Msg("news roundup completed")
	return nil
}

// runScheduled starts the cron scheduler and blocks until a shutdown signal.
func runScheduled(ctx context.Context, cfg *config.Config, runner *pipeline.Runner, db *database.DB, logger zerolog.Logger) error {
	sched := scheduler.New(runner, db, logger)

	if err := sched.Register(domain.VariantDaily, cfg.Pipeline.Daily.Cron); err != nil {
		return err
	}
	if err := sched.Register(domain.VariantFrontier, cfg.Pipeline.Frontier.Cron); err != nil {
		return err
	}

	if cfg.News.Enabled {
		news := buildNewsDigest(cfg, db, logger)
		err := sched.RegisterJob("news", cfg.News.Cron, func(ctx context.Context) error {
			_, err := news.Run(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	sched.Start()
	logger.Info().
		Str("daily_cron", cfg.Pipeline.Daily.Cron).
		Str("frontier_cron", cfg.Pipeline.Frontier.Cron).
		Str("news_cron", cfg.News.Cron).
		Msg("digest scheduler started")

	<-ctx.Done()
	logger.Info().Msg("received shutdown signal")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		logger.Warn().Err(err).Msg("scheduler did not drain in-flight runs before timeout")
	}

	logger.Info().Msg("digest scheduler stopped")
	return nil
}

// buildNewsDigest wires the feed reader, seen-item store, and Slack poster
// into a news roundup.
func buildNewsDigest(cfg *config.Config, db *database.DB, logger zerolog.Logger) *rss.NewsDigest {
	reader := rss.NewReader(rss.ReaderConfig{}, logger)
	seenRepo := repository.NewPgNewsSeenRepository(db)

	poster := digest.NewSlackPoster(digest.SlackConfig{
		WebhookURL: cfg.Slack.WebhookURL,
		Timeout:    cfg.Slack.Timeout,
		RateLimit:  cfg.Slack.RateLimit,
		Enabled:    cfg.Slack.Enabled,
	})

	return rss.NewNewsDigest(rss.NewsConfig{
		Feeds:        newsFeeds(cfg.News.Feeds),
		HoursBack:    cfg.News.HoursBack,
		MaxItems:     cfg.News.MaxItems,
		SeenLookback: cfg.News.SeenLookback,
	}, reader, seenRepo, poster, logger)
}

// newsFeeds converts configured feeds to the rss type; an empty list keeps
// the built-in sources.
func newsFeeds(configured []config.NewsFeedConfig) []rss.Feed {
	feeds := make([]rss.Feed, 0, len(configured))
	for _, f := range configured {
		feeds = append(feeds, rss.Feed{
			Name:     f.Name,
			URL:      f.URL,
			Category: f.Category,
			Priority: f.Priority,
		})
	}
	return feeds
}

// buildRunner wires the paper sources, enrichment, triage, and delivery
// clients into a pipeline runner.
func buildRunner(
	cfg *config.Config,
	registry *topics.Registry,
	runRepo repository.RunRepository,
	publisher *events.Publisher,
	logger zerolog.Logger,
) (*pipeline.Runner, error) {
	scorer, err := llm.NewScorer(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			Model:   cfg.LLM.Gemini.Model,
			BaseURL: cfg.LLM.Gemini.BaseURL,
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM scorer: %w", err)
	}
	triage := llm.NewTriage(scorer, registry.Authors())

	sources := []papersources.PaperSource{
		pubmed.New(pubmed.Config{
			BaseURL:    cfg.PaperSources.PubMed.BaseURL,
			APIKey:     cfg.PaperSources.PubMed.APIKey,
			Timeout:    cfg.PaperSources.PubMed.Timeout,
			RateLimit:  cfg.PaperSources.PubMed.RateLimit,
			MaxResults: cfg.PaperSources.PubMed.MaxResults,
			Enabled:    cfg.PaperSources.PubMed.Enabled,
		}),
		biorxiv.New(biorxiv.Config{
			Server:     domain.SourceBioRxiv,
			BaseURL:    cfg.PaperSources.BioRxiv.BaseURL,
			Timeout:    cfg.PaperSources.BioRxiv.Timeout,
			RateLimit:  cfg.PaperSources.BioRxiv.RateLimit,
			MaxResults: cfg.PaperSources.BioRxiv.MaxResults,
			Enabled:    cfg.PaperSources.BioRxiv.Enabled,
		}),
		biorxiv.New(biorxiv.Config{
			Server:     domain.SourceMedRxiv,
			BaseURL:    cfg.PaperSources.MedRxiv.BaseURL,
			Timeout:    cfg.PaperSources.MedRxiv.Timeout,
			RateLimit:  cfg.PaperSources.MedRxiv.RateLimit,
			MaxResults: cfg.PaperSources.MedRxiv.MaxResults,
			Enabled:    cfg.PaperSources.MedRxiv.Enabled,
		}),
	}

	enricher := altmetric.New(altmetric.Config{
		BaseURL:   cfg.Altmetric.BaseURL,
		APIKey:    cfg.Altmetric.APIKey,
		Timeout:   cfg.Altmetric.Timeout,
		RateLimit: cfg.Altmetric.RateLimit,
		Enabled:   cfg.Altmetric.Enabled,
	})

	poster := digest.NewSlackPoster(digest.SlackConfig{
		WebhookURL: cfg.Slack.WebhookURL,
		Timeout:    cfg.Slack.Timeout,
		RateLimit:  cfg.Slack.RateLimit,
		Enabled:    cfg.Slack.Enabled,
	})

	runner := pipeline.NewRunner(pipeline.Deps{
		Registry: registry,
		Sources:  sources,
		Enricher: enricher,
		Scorer:   triage,
		Runs:     runRepo,
		Events:   publisher,
		Poster:   poster,
		Metrics:  observability.NewMetrics("literature_digest"),
		Logger:   logger,
	})
	runner.SetVariantConfig(domain.VariantDaily,
		variantConfig(pipeline.DailyConfig(), cfg.Pipeline.Daily, cfg.Pipeline))
	runner.SetVariantConfig(domain.VariantFrontier,
		variantConfig(pipeline.FrontierConfig(), cfg.Pipeline.Frontier, cfg.Pipeline))

	return runner, nil
}

// variantConfig overlays the configured per-variant settings onto the
// variant's built-in defaults.
func variantConfig(base pipeline.VariantConfig, vs config.VariantSettings, pc config.PipelineConfig) pipeline.VariantConfig {
	if vs.Preset != "" {
		base.Preset = vs.Preset
	}
	if vs.DaysBack > 0 {
		base.DaysBack = vs.DaysBack
	}
	if vs.MaxResults > 0 {
		base.MaxResults = vs.MaxResults
	}
	if vs.Threshold > 0 {
		base.Scoring.Threshold = vs.Threshold
	}
	if vs.TopN > 0 {
		base.Scoring.TopN = vs.TopN
	}
	if vs.MinFrontierScore > 0 {
		base.Scoring.MinFrontierScore = vs.MinFrontierScore
	}
	if pc.DedupLookback > 0 {
		base.DedupLookback = pc.DedupLookback
	}
	if pc.EnrichConcurrency > 0 {
		base.EnrichConcurrency = pc.EnrichConcurrency
	}
	return base
}
