// Package cli holds the redmerce command tree.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ernaz100/redmerce/internal/apperrors"
	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/logger"
)

var version = "dev"

// loadConfig is swapped in tests.
var loadConfig = config.Load

var rootCmd = &cobra.Command{
	Use:   "redmerce",
	Short: "Shopping assistant backend",
	Long: `redmerce turns a natural-language shopping request into a conversational
reply plus enriched product candidates with prices, images and purchase links.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setup loads the configuration and builds the process logger.
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).
		With(map[string]interface{}{"service": "redmerce-backend", "pid": os.Getpid()})

	apperrors.CheckAPIKey(log, "PERPLEXITY_API_KEY", cfg.Perplexity.APIKey)
	apperrors.CheckAPIKey(log, "SERP_API_KEY", cfg.Serp.APIKey)
	return cfg, log, nil
}
