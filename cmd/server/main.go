// Package main provides the entry point for the literature digest service
// API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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
	httpserver "github.com/helixir/literature-digest-service/internal/server/http"
	"github.com/helixir/literature-digest-service/internal/topics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("literature-digest-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
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

	// Load the topic registry.
	registry, err := topics.Load(cfg.Topics.TopicsPath, cfg.Topics.PresetsPath, cfg.Topics.AuthorLists())
	if err != nil {
		return fmt.Errorf("load topic registry: %w", err)
	}
	logger.Info().Int("topics", len(registry.Topics())).Msg("topic registry loaded")

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

	// Create the HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, registry, runRepo, runner, db, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Msg("literature-digest-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down literature-digest-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("literature-digest-service shutdown complete")
	return nil
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
