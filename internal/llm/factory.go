package llm

import (
	"time"

	"github.com/helixir/literature-digest-service/internal/domain"
)

// FactoryConfig holds the parameters needed to create a Scorer.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("gemini", "openai" or "anthropic").
	Provider string
	// Temperature is the LLM temperature setting.
	Temperature float64
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewScorer creates a Scorer based on the configuration. Supports the
// "gemini", "openai" and "anthropic" providers; any other value is a
// configuration error.
func NewScorer(cfg FactoryConfig) (Scorer, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiScorer(cfg.Gemini, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	case "openai":
		return NewOpenAIScorer(cfg.OpenAI, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	case "anthropic":
		return NewAnthropicScorer(cfg.Anthropic, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, domain.NewConfigError("llm", "unsupported provider: "+cfg.Provider)
	}
}
