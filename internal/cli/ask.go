package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/handler"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/model"
	"github.com/ernaz100/redmerce/internal/server"
)

var askOriginalQuery string

// newProcessor is swapped in tests.
var newProcessor = func(ctx context.Context, cfg *config.Config, log logger.Logger) (handler.ChatProcessor, error) {
	agent, _, err := server.NewPipeline(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return agent, nil
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run one chat turn and print the response",
	Long: `Sends a single message through the shopping pipeline and prints the
response envelope as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askOriginalQuery, "original-query", "", "original query of the conversation")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(args[0])
	if message == "" {
		return errors.New("message is required")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	agent, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	env := agent.ProcessMessage(ctx, message, model.ChatContext{OriginalQuery: askOriginalQuery})

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
