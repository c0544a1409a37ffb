package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ernaz100/redmerce/internal/logger"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		message string
		want    int
	}{
		{"Validation failed for field message", http.StatusBadRequest},
		{"invalid character 'x' looking for beginning of value", http.StatusBadRequest},
		{"product not found", http.StatusNotFound},
		{"Unauthorized", http.StatusUnauthorized},
		{"permission denied", http.StatusUnauthorized},
		{"upstream TIMEOUT", http.StatusRequestTimeout},
		{"something exploded", http.StatusInternalServerError},
		// first rule wins even when a later keyword also appears
		{"invalid upstream timeout", http.StatusBadRequest},
		{"not found: permission", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.message))
		})
	}
}

func TestTranslate(t *testing.T) {
	status, body := Translate(errors.New("invalid request body"), "Error processing chat request")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)
	assert.Nil(t, body.Timestamp)
	assert.Equal(t, "invalid request body", body.Error.Message)
	assert.Equal(t, "errors.errorString", body.Error.Type)
	assert.Equal(t, "Error processing chat request", body.Error.Context)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"error": {"message": "invalid request body", "type": "errors.errorString", "context": "Error processing chat request"},
		"success": false,
		"timestamp": null
	}`, string(raw))
}

func TestTranslate_AppErrorAndRedaction(t *testing.T) {
	inner := errors.New("GET https://serpapi.com/search.json?api_key=abc123 failed")
	err := fmt.Errorf("lookup: %w", New(CodeUpstream, "shopping search failed", inner))

	status, body := Translate(err, "details")

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, string(CodeUpstream), body.Error.Type)
	assert.NotContains(t, body.Error.Message, "abc123")
	assert.Contains(t, body.Error.Message, "api_key="+Redacted)
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"api_key=abc123 rejected", "api_key=[REDACTED] rejected"},
		{"API-KEY: abc", "API-KEY: [REDACTED]"},
		{"login with password=hunter2 and token=xyz", "login with password=[REDACTED] and token=[REDACTED]"},
		{"secret_key=s3cr3t", "secret_key=[REDACTED]"},
		{"nothing sensitive here", "nothing sensitive here"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeMessage(tt.in))
		})
	}
}

func TestCheckAPIKey(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := logger.NewZapAdapter(zap.New(core))

	assert.True(t, CheckAPIKey(log, "SERP_API_KEY", "key"))
	assert.False(t, CheckAPIKey(log, "PERPLEXITY_API_KEY", "  "))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "PERPLEXITY_API_KEY", logs.All()[0].ContextMap()["key"])
}
