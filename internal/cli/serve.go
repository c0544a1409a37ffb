package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ernaz100/redmerce/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP server with /api/chat, /health, /metrics and the /mcp tool
endpoint. Stops gracefully on interrupt.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	ctx := cmd.Context()
	srv, err := server.NewServer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
