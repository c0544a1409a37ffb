package config

import "time"

// Config is the process configuration, loaded once at startup and read-only
// afterwards.
type Config struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"flask_env"`
	SecretKey   string `mapstructure:"secret_key"`

	Perplexity PerplexityConfig `mapstructure:"perplexity"`
	Serp       SerpConfig       `mapstructure:"serp"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Google     GoogleConfig     `mapstructure:"google"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

// PerplexityConfig configures the answer-engine search (Step 1).
type PerplexityConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SerpConfig configures the shopping-results lookup (Step 2).
type SerpConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Country  string        `mapstructure:"country"`
	Language string        `mapstructure:"language"`
	Location string        `mapstructure:"location"`
	Num      int           `mapstructure:"num"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AgentConfig configures the decision step and the enrichment pipeline.
type AgentConfig struct {
	Provider          string `mapstructure:"provider"`
	OpenAIModel       string `mapstructure:"openai_model"`
	GeminiModel       string `mapstructure:"gemini_model"`
	MaxCandidates     int    `mapstructure:"max_candidates"`
	DetailConcurrency int    `mapstructure:"detail_concurrency"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Debug reports whether the process runs in development mode.
func (c *Config) Debug() bool {
	return c.Environment == "development"
}

// ResolvedProvider returns the decision backend to use: the explicit
// AGENT_PROVIDER when set, otherwise the first backend with a key.
func (c *Config) ResolvedProvider() string {
	if c.Agent.Provider != "" {
		return c.Agent.Provider
	}
	if c.OpenAI.APIKey != "" {
		return ProviderOpenAI
	}
	if c.Google.APIKey != "" {
		return ProviderGemini
	}
	return ""
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)
