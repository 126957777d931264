package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the literature digest service.
// Metrics are organized by subsystem: digest runs, papers, paper sources,
// enrichment providers (Altmetric, LLM), and publishing. All counters and
// histograms are registered via promauto with the default registry.
type Metrics struct {
	// RunsStarted counts digest runs initiated, labeled by variant.
	RunsStarted *prometheus.CounterVec

	// RunsCompleted counts digest runs that finished successfully, labeled by variant.
	RunsCompleted *prometheus.CounterVec

	// RunsFailed counts digest runs that ended in failure, labeled by variant.
	RunsFailed *prometheus.CounterVec

	// RunDuration observes end-to-end run duration in seconds, labeled by variant.
	RunDuration *prometheus.HistogramVec

	// PapersFetched counts candidate papers returned by searches, labeled by source.
	PapersFetched *prometheus.CounterVec

	// PapersDeduplicated counts papers dropped as duplicates or already published.
	PapersDeduplicated prometheus.Counter

	// PapersScored counts papers that received a full set of triage scores.
	PapersScored prometheus.Counter

	// PapersSkipped counts papers dropped during enrichment, labeled by reason.
	PapersSkipped *prometheus.CounterVec

	// PapersPublished counts papers that passed the threshold and were published, labeled by variant.
	PapersPublished *prometheus.CounterVec

	// CombinedScores observes the distribution of combined scores, labeled by variant.
	CombinedScores *prometheus.HistogramVec

	// SourceRequestsTotal counts HTTP requests to paper source APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to paper source APIs, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to paper source APIs in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from paper source APIs, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// AltmetricRequests counts Altmetric API lookups, labeled by outcome (hit, miss, error).
	AltmetricRequests *prometheus.CounterVec

	// LLMRequestsTotal counts LLM API requests, labeled by provider and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by provider, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by provider and model.
	LLMRequestDuration *prometheus.HistogramVec

	// DigestsPosted counts digests delivered to output channels, labeled by channel.
	DigestsPosted *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of digest runs started",
		}, []string{"variant"}),
		RunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total number of digest runs completed successfully",
		}, []string{"variant"}),
		RunsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of digest runs that failed",
		}, []string{"variant"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end digest run duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"variant"}),

		PapersFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of candidate papers fetched",
		}, []string{"source"}),
		PapersDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_deduplicated_total",
			Help:      "Total number of papers dropped as duplicates",
		}),
		PapersScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_scored_total",
			Help:      "Total number of papers fully triage-scored",
		}),
		PapersSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_skipped_total",
			Help:      "Total number of papers skipped during enrichment",
		}, []string{"reason"}),
		PapersPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_published_total",
			Help:      "Total number of papers published in digests",
		}, []string{"variant"}),
		CombinedScores: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "combined_score",
			Help:      "Distribution of combined paper scores",
			Buckets:   prometheus.LinearBuckets(0, 3, 11),
		}, []string{"variant"}),

		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of HTTP requests to paper source APIs",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed HTTP requests to paper source APIs",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "HTTP request duration to paper source APIs in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate-limited responses from paper source APIs",
		}, []string{"source"}),

		AltmetricRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "altmetric_requests_total",
			Help:      "Total number of Altmetric lookups by outcome",
		}, []string{"outcome"}),

		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM API requests",
		}, []string{"provider", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM API requests",
		}, []string{"provider", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM API request duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}, []string{"provider", "model"}),

		DigestsPosted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_posted_total",
			Help:      "Total number of digests delivered to output channels",
		}, []string{"channel"}),
	}
}
