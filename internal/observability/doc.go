// Package observability provides logging, metrics, and context helpers for
// the literature digest service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for digest runs, papers, sources, and providers
//   - Context helpers for propagating run and request identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("run_id", runID).Msg("digest run started")
//
// Add run context to a logger:
//
//	logger = observability.WithRunContext(logger, runID, variant, preset)
//
// # Metrics
//
// Initialize and record metrics:
//
//	metrics := observability.NewMetrics("literature_digest")
//	metrics.RunsStarted.WithLabelValues("daily").Inc()
//	metrics.PapersFetched.WithLabelValues("pubmed").Add(42)
//
// # Context Helpers
//
// Store and retrieve request and run identifiers:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithRun(ctx, runID, variant)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	runID, variant := observability.RunFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - run_id: Digest run identifier
//   - variant: Pipeline variant (daily, frontier)
//   - preset: Topic preset name
//   - source: Paper source (pubmed, biorxiv, medrxiv)
//   - topic: Registry topic name
//   - paper_id: Canonical paper identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
