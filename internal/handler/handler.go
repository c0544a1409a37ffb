package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mitchellh/mapstructure"

	"github.com/ernaz100/redmerce/internal/apperrors"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/model"
	"github.com/ernaz100/redmerce/internal/validator"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "redmerce-backend"

const chatErrorContext = "Error processing chat request"

// ChatProcessor runs one chat turn.
type ChatProcessor interface {
	ProcessMessage(ctx context.Context, message string, chatContext model.ChatContext) model.Envelope
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	agent  ChatProcessor
	logger logger.Logger
	now    func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(agent ChatProcessor, log logger.Logger) *Handler {
	return &Handler{
		agent:  agent,
		logger: log,
		now:    time.Now,
	}
}

// HandleRoot describes the service.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": ServiceName,
		"endpoints": map[string]interface{}{
			"chat": map[string]interface{}{
				"path":        "/api/chat",
				"method":      "POST",
				"description": "Send a message to the shopping agent",
				"example": map[string]interface{}{
					"message": "find me noise-cancelling headphones under 200 euros",
					"context": map[string]interface{}{
						"original_query":   "",
						"chat_history":     []interface{}{},
						"current_products": []interface{}{},
					},
				},
			},
			"health": map[string]interface{}{
				"path":        "/health",
				"method":      "GET",
				"description": "Health check endpoint",
			},
			"metrics": map[string]interface{}{
				"path":        "/metrics",
				"method":      "GET",
				"description": "Prometheus metrics",
			},
			"mcp": map[string]interface{}{
				"path":        "/mcp",
				"description": "MCP endpoint exposing find_products and get_product_details",
			},
		},
	})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Timestamp: model.Timestamp(h.now()),
		Service:   ServiceName,
	})
}

// HandleChat validates the request and runs one chat turn.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.fail(w, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("panic: %v", rec), nil))
		}
	}()
	defer r.Body.Close()

	log := h.requestLogger(r)

	var data interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.fail(w, apperrors.New(apperrors.CodeDecodeFailed, "invalid JSON body", err))
		return
	}

	if !validator.ValidateChatRequest(data) {
		log.Warn("Invalid chat request", nil)
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request format"})
		return
	}

	var req model.ChatRequest
	if err := mapstructure.Decode(data, &req); err != nil {
		h.fail(w, apperrors.New(apperrors.CodeDecodeFailed, "invalid chat request", err))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Message is required"})
		return
	}

	log.Info("Processing chat message", map[string]interface{}{
		"message":       message,
		"history_turns": len(req.Context.ChatHistory),
	})

	ctx := logger.WithContext(r.Context(), log)
	writeJSON(w, http.StatusOK, h.agent.ProcessMessage(ctx, message, req.Context))
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "Endpoint not found"})
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{Error: "Method not allowed"})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, body := apperrors.Translate(err, chatErrorContext)
	h.logger.WithError(err).Error(chatErrorContext, map[string]interface{}{"status": status})
	writeJSON(w, status, body)
}

// requestLogger tags the handler logger with the chi request id, if any.
func (h *Handler) requestLogger(r *http.Request) logger.Logger {
	id := middleware.GetReqID(r.Context())
	if id == "" {
		return h.logger
	}
	return h.logger.With(map[string]interface{}{"request_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
