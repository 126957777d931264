// Package config provides configuration management for the literature
// digest service. Values come from defaults, an optional YAML file, and
// LITDIGEST_* environment variables, in increasing precedence; secrets are
// loaded exclusively from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// envPrefix is the prefix for all environment variables.
const envPrefix = "LITDIGEST"

// Config holds all configuration for the literature digest service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Topics contains topic registry file locations and author lists.
	Topics TopicsConfig `mapstructure:"topics"`
	// LLM contains triage scorer settings.
	LLM LLMConfig `mapstructure:"llm"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// Altmetric contains Altmetric enrichment settings.
	Altmetric AltmetricConfig `mapstructure:"altmetric"`
	// Slack contains Slack webhook delivery settings.
	Slack SlackConfig `mapstructure:"slack"`
	// Kafka contains run event publisher settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Pipeline contains per-variant digest run settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// News contains RSS news roundup settings.
	News NewsConfig `mapstructure:"news"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port" validate:"min=1,max=65535"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host" validate:"required"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name" validate:"required"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode" validate:"oneof=disable require verify-ca verify-full"`
	// MaxConns is the maximum number of connections in the pool (default: 25).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 5).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// TopicsConfig holds topic registry file locations and the triage author
// lists.
type TopicsConfig struct {
	// TopicsPath is the path to the topics CSV file.
	TopicsPath string `mapstructure:"topics_path" validate:"required"`
	// PresetsPath is the path to the presets CSV file (optional).
	PresetsPath string `mapstructure:"presets_path"`
	// AuthorAllow lists authors whose papers get a relevance boost.
	AuthorAllow []string `mapstructure:"author_allow"`
	// AuthorBlock lists authors whose papers are dropped before scoring.
	AuthorBlock []string `mapstructure:"author_block"`
}

// AuthorLists returns the configured lists as the domain type.
func (c *TopicsConfig) AuthorLists() domain.AuthorLists {
	return domain.AuthorLists{Allow: c.AuthorAllow, Block: c.AuthorBlock}
}

// LLMConfig holds triage scorer configuration.
type LLMConfig struct {
	// Provider is the LLM provider (gemini, openai, anthropic).
	Provider string `mapstructure:"provider" validate:"oneof=gemini openai anthropic"`
	// Temperature is the sampling temperature for scoring calls.
	Temperature float64 `mapstructure:"temperature"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int `mapstructure:"max_retries"`
	// Gemini contains Gemini-specific settings.
	Gemini ProviderConfig `mapstructure:"gemini"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI ProviderConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig holds per-provider LLM settings.
type ProviderConfig struct {
	// APIKey is the provider API key (loaded from LITDIGEST_LLM_<PROVIDER>_API_KEY).
	APIKey string `mapstructure:"-"`
	// Model is the model name to use for scoring.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// PaperSourcesConfig holds configuration for all paper source APIs.
type PaperSourcesConfig struct {
	// PubMed contains PubMed E-utilities settings.
	PubMed PaperSourceConfig `mapstructure:"pubmed"`
	// BioRxiv contains bioRxiv API settings.
	BioRxiv PaperSourceConfig `mapstructure:"biorxiv"`
	// MedRxiv contains medRxiv API settings.
	MedRxiv PaperSourceConfig `mapstructure:"medrxiv"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g.
	// LITDIGEST_PAPER_SOURCES_PUBMED_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum results per query.
	MaxResults int `mapstructure:"max_results"`
}

// AltmetricConfig holds Altmetric enrichment settings.
type AltmetricConfig struct {
	// Enabled controls whether attention enrichment runs.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is an optional Altmetric API key (loaded from LITDIGEST_ALTMETRIC_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the Altmetric API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// SlackConfig holds Slack webhook delivery settings.
type SlackConfig struct {
	// Enabled controls whether digests are posted to Slack.
	Enabled bool `mapstructure:"enabled"`
	// WebhookURL is the incoming webhook URL (loaded from LITDIGEST_SLACK_WEBHOOK_URL).
	WebhookURL string `mapstructure:"-"`
	// Timeout is the timeout for webhook calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// KafkaConfig holds run event publisher settings.
type KafkaConfig struct {
	// Enabled controls whether run events are published.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic for digest run events.
	Topic string `mapstructure:"topic"`
	// ServiceName identifies this service in event envelopes.
	ServiceName string `mapstructure:"service_name"`
}

// PipelineConfig holds per-variant digest run settings.
type PipelineConfig struct {
	// Daily configures the daily digest variant.
	Daily VariantSettings `mapstructure:"daily"`
	// Frontier configures the weekly frontier digest variant.
	Frontier VariantSettings `mapstructure:"frontier"`
	// DedupLookback is how far back published papers suppress re-publication.
	DedupLookback time.Duration `mapstructure:"dedup_lookback"`
	// EnrichConcurrency bounds concurrent Altmetric lookups.
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

// VariantSettings configures one pipeline variant.
type VariantSettings struct {
	// Preset names the topic selection; empty selects every active topic.
	Preset string `mapstructure:"preset"`
	// DaysBack is the publication window searched.
	DaysBack int `mapstructure:"days_back" validate:"min=1"`
	// MaxResults caps candidates fetched per source.
	MaxResults int `mapstructure:"max_results" validate:"min=1"`
	// Threshold is the minimum combined score for publication.
	Threshold int `mapstructure:"threshold" validate:"min=0"`
	// TopN caps how many papers a digest publishes.
	TopN int `mapstructure:"top_n" validate:"min=1"`
	// MinFrontierScore additionally gates papers on the frontier dimension.
	// Only meaningful for the frontier variant.
	MinFrontierScore int `mapstructure:"min_frontier_score" validate:"min=0"`
	// Cron is the schedule expression used by the scheduler.
	Cron string `mapstructure:"cron"`
}

// NewsConfig holds RSS news roundup settings.
type NewsConfig struct {
	// Enabled controls whether the news roundup runs.
	Enabled bool `mapstructure:"enabled"`
	// HoursBack is how far back fetched items may be published.
	HoursBack int `mapstructure:"hours_back" validate:"min=1"`
	// MaxItems caps how many items one roundup posts.
	MaxItems int `mapstructure:"max_items" validate:"min=1"`
	// SeenLookback is how far back posted items suppress reposting.
	SeenLookback time.Duration `mapstructure:"seen_lookback"`
	// Cron is the schedule expression used by the scheduler.
	Cron string `mapstructure:"cron"`
	// Feeds lists the subscribed sources; empty uses the built-in set.
	Feeds []NewsFeedConfig `mapstructure:"feeds"`
}

// NewsFeedConfig describes one subscribed news feed.
type NewsFeedConfig struct {
	// Name is the display name used in the roundup.
	Name string `mapstructure:"name"`
	// URL is the RSS or Atom feed endpoint.
	URL string `mapstructure:"url"`
	// Category groups feeds (news, reddit, research).
	Category string `mapstructure:"category"`
	// Priority is informational ordering metadata (high, medium).
	Priority string `mapstructure:"priority"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementCacheCapacity > 0 {
		params.Set("statement_cache_capacity", fmt.Sprintf("%d", c.StatementCacheCapacity))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/literature-digest-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.LLM.Gemini.APIKey = os.Getenv(envPrefix + "_LLM_GEMINI_API_KEY")
	cfg.LLM.OpenAI.APIKey = os.Getenv(envPrefix + "_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv(envPrefix + "_LLM_ANTHROPIC_API_KEY")

	cfg.PaperSources.PubMed.APIKey = os.Getenv(envPrefix + "_PAPER_SOURCES_PUBMED_API_KEY")
	cfg.PaperSources.BioRxiv.APIKey = os.Getenv(envPrefix + "_PAPER_SOURCES_BIORXIV_API_KEY")
	cfg.PaperSources.MedRxiv.APIKey = os.Getenv(envPrefix + "_PAPER_SOURCES_MEDRXIV_API_KEY")

	cfg.Altmetric.APIKey = os.Getenv(envPrefix + "_ALTMETRIC_API_KEY")
	cfg.Slack.WebhookURL = os.Getenv(envPrefix + "_SLACK_WEBHOOK_URL")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "litdigest")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "literature_digest_service")
	// Default to "require" for production security. Use LITDIGEST_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)
	v.SetDefault("database.statement_cache_capacity", 512)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Topics defaults
	v.SetDefault("topics.topics_path", "config/topics.csv")
	v.SetDefault("topics.presets_path", "")
	v.SetDefault("topics.author_allow", []string{})
	v.SetDefault("topics.author_block", []string{})

	// LLM defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")

	// Paper sources defaults - PubMed
	v.SetDefault("paper_sources.pubmed.enabled", true)
	v.SetDefault("paper_sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("paper_sources.pubmed.timeout", "30s")
	v.SetDefault("paper_sources.pubmed.rate_limit", 3.0) // NCBI recommends max 3 req/sec without API key
	v.SetDefault("paper_sources.pubmed.max_results", 200)

	// Paper sources defaults - bioRxiv
	v.SetDefault("paper_sources.biorxiv.enabled", true)
	v.SetDefault("paper_sources.biorxiv.base_url", "https://api.biorxiv.org")
	v.SetDefault("paper_sources.biorxiv.timeout", "30s")
	v.SetDefault("paper_sources.biorxiv.rate_limit", 5.0)
	v.SetDefault("paper_sources.biorxiv.max_results", 100)

	// Paper sources defaults - medRxiv
	v.SetDefault("paper_sources.medrxiv.enabled", true)
	v.SetDefault("paper_sources.medrxiv.base_url", "https://api.medrxiv.org")
	v.SetDefault("paper_sources.medrxiv.timeout", "30s")
	v.SetDefault("paper_sources.medrxiv.rate_limit", 5.0)
	v.SetDefault("paper_sources.medrxiv.max_results", 100)

	// Altmetric defaults
	v.SetDefault("altmetric.enabled", true)
	v.SetDefault("altmetric.base_url", "https://api.altmetric.com/v1")
	v.SetDefault("altmetric.timeout", "10s")
	v.SetDefault("altmetric.rate_limit", 1.0) // free-tier allowance

	// Slack defaults
	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.timeout", "30s")
	v.SetDefault("slack.rate_limit", 1.0)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.digest.literature_digest_service")
	v.SetDefault("kafka.service_name", "literature-digest-service")

	// Pipeline defaults - daily variant
	v.SetDefault("pipeline.daily.preset", "")
	v.SetDefault("pipeline.daily.days_back", 7)
	v.SetDefault("pipeline.daily.max_results", 200)
	v.SetDefault("pipeline.daily.threshold", 15)
	v.SetDefault("pipeline.daily.top_n", 5)
	v.SetDefault("pipeline.daily.min_frontier_score", 0)
	v.SetDefault("pipeline.daily.cron", "0 6 * * *")

	// Pipeline defaults - frontier variant
	v.SetDefault("pipeline.frontier.preset", "")
	v.SetDefault("pipeline.frontier.days_back", 14)
	v.SetDefault("pipeline.frontier.max_results", 200)
	v.SetDefault("pipeline.frontier.threshold", 12)
	v.SetDefault("pipeline.frontier.top_n", 7)
	v.SetDefault("pipeline.frontier.min_frontier_score", 6)
	v.SetDefault("pipeline.frontier.cron", "0 7 * * MON")

	v.SetDefault("pipeline.dedup_lookback", "720h") // 30 days
	v.SetDefault("pipeline.enrich_concurrency", 4)

	// News roundup defaults
	v.SetDefault("news.enabled", true)
	v.SetDefault("news.hours_back", 24)
	v.SetDefault("news.max_items", 15)
	v.SetDefault("news.seen_lookback", "2160h") // 90 days
	v.SetDefault("news.cron", "0 8 * * *")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration: struct tag constraints first, then
// the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid value for %s: failed %q constraint", first.Namespace(), first.Tag())
		}
		return err
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database max_conns (%d) must be >= min_conns (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}

	// The configured LLM provider must have its API key set.
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini":
		if c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_GEMINI_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_OPENAI_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_ANTHROPIC_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("slack is enabled but %s_SLACK_WEBHOOK_URL is not set", envPrefix)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka is enabled but no brokers are configured")
	}

	return nil
}
