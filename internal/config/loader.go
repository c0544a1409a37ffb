package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env, an optional config.yaml and the environment, in rising
// priority. perplexity.api_key is read from PERPLEXITY_API_KEY.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals cfg from an already prepared viper instance, binding
// the environment and applying defaults first.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5001)
	v.SetDefault("flask_env", "")
	v.SetDefault("secret_key", "dev-secret-key")

	v.SetDefault("perplexity.api_key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("perplexity.max_tokens", 3000)
	v.SetDefault("perplexity.temperature", 0.1)
	v.SetDefault("perplexity.timeout", 120*time.Second)

	v.SetDefault("serp.api_key", "")
	v.SetDefault("serp.country", "de")
	v.SetDefault("serp.language", "de")
	v.SetDefault("serp.location", "Germany")
	v.SetDefault("serp.num", 5)
	v.SetDefault("serp.timeout", 60*time.Second)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("google.api_key", "")

	v.SetDefault("agent.provider", "")
	v.SetDefault("agent.openai_model", "gpt-4o")
	v.SetDefault("agent.gemini_model", "gemini-2.5-flash")
	v.SetDefault("agent.max_candidates", 5)
	v.SetDefault("agent.detail_concurrency", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	switch cfg.Agent.Provider {
	case "", ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown agent provider %q", cfg.Agent.Provider)
	}
	if cfg.Agent.MaxCandidates <= 0 {
		return fmt.Errorf("agent.max_candidates must be positive, got %d", cfg.Agent.MaxCandidates)
	}
	if cfg.Agent.DetailConcurrency <= 0 {
		cfg.Agent.DetailConcurrency = 1
	}
	if cfg.Debug() {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
	}
	return nil
}
