package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/handler"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/model"
)

type stubAgent struct {
	message string
	context model.ChatContext
}

func (s *stubAgent) ProcessMessage(_ context.Context, message string, chatContext model.ChatContext) model.Envelope {
	s.message = message
	s.context = chatContext
	return model.Envelope{
		"status":    "success",
		"response":  "What is your budget?",
		"products":  []interface{}{},
		"type":      "conversational",
		"timestamp": "2024-05-01T12:00:00.000000Z",
	}
}

func stubDeps(t *testing.T, agent handler.ChatProcessor, loadErr error) {
	t.Helper()
	origLoad, origProcessor := loadConfig, newProcessor
	loadConfig = func() (*config.Config, error) {
		if loadErr != nil {
			return nil, loadErr
		}
		return &config.Config{Logging: config.LoggingConfig{Level: "error", Format: "json"}}, nil
	}
	newProcessor = func(context.Context, *config.Config, logger.Logger) (handler.ChatProcessor, error) {
		return agent, nil
	}
	t.Cleanup(func() {
		loadConfig, newProcessor = origLoad, origProcessor
		askOriginalQuery = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
}

func TestAskCmd_PrintsEnvelope(t *testing.T) {
	agent := &stubAgent{}
	stubDeps(t, agent, nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "  I need a laptop ", "--original-query", "laptop"})

	require.NoError(t, Execute(context.Background()))

	assert.Equal(t, "I need a laptop", agent.message)
	assert.Equal(t, "laptop", agent.context.OriginalQuery)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, "conversational", env["type"])
	assert.Equal(t, "What is your budget?", env["response"])
}

func TestAskCmd_BlankMessage(t *testing.T) {
	stubDeps(t, &stubAgent{}, nil)
	rootCmd.SetArgs([]string{"ask", "   "})

	assert.EqualError(t, Execute(context.Background()), "message is required")
}

func TestAskCmd_ConfigError(t *testing.T) {
	stubDeps(t, &stubAgent{}, errors.New("invalid configuration: port out of range"))
	rootCmd.SetArgs([]string{"ask", "hi"})

	assert.EqualError(t, Execute(context.Background()), "invalid configuration: port out of range")
}

func TestCommands_Registered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["ask"])
	assert.Equal(t, "redmerce", rootCmd.Use)
}
