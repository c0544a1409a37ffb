package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/handler"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/search"
	"github.com/ernaz100/redmerce/internal/service"
	"github.com/ernaz100/redmerce/internal/shopping"
	"github.com/ernaz100/redmerce/internal/tools"
)

// requestTimeout bounds a whole chat turn: one search plus up to five
// sequential detail lookups.
const requestTimeout = 10 * time.Minute

// Server is the HTTP server with all of its dependencies.
type Server struct {
	Config  *config.Config
	Agent   *service.AgentService
	Tools   *tools.Server
	Handler *handler.Handler
	Router  chi.Router
	logger  logger.Logger
}

// NewServer wires the pipeline from cfg.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	agent, mcpTools, err := NewPipeline(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Config:  cfg,
		Agent:   agent,
		Tools:   mcpTools,
		Handler: handler.NewHandler(agent, log.With(map[string]interface{}{"component": "handler"})),
		logger:  log,
	}
	s.SetupRouter()
	return s, nil
}

// NewPipeline builds the agent service and the MCP tool server that share
// the same search and shopping clients.
func NewPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.AgentService, *tools.Server, error) {
	finder := search.NewClient(cfg.Perplexity, log.With(map[string]interface{}{"component": "search"}))
	details := shopping.NewClient(cfg.Serp, log.With(map[string]interface{}{"component": "shopping"}))

	decider, err := service.NewDecider(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create decider: %w", err)
	}

	agent := service.NewAgentService(decider, finder, details,
		log.With(map[string]interface{}{"component": "agent"}),
		service.WithMaxCandidates(cfg.Agent.MaxCandidates),
		service.WithDetailConcurrency(cfg.Agent.DetailConcurrency),
	)

	mcpTools, err := tools.NewServer(finder, details)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create MCP tools: %w", err)
	}
	return agent, mcpTools, nil
}

// SetupRouter configures the chi routes and middlewares.
func (s *Server) SetupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(s.Handler.NotFound)
	r.MethodNotAllowed(s.Handler.MethodNotAllowed)

	r.Get("/", s.Handler.HandleRoot)
	r.Get("/health", s.Handler.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/mcp", s.Tools.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Post("/chat", s.Handler.HandleChat)
	})

	s.Router = r
}

// recoverer turns a panic that escaped a handler into a JSON 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("Recovered from panic", map[string]interface{}{
					"panic":      fmt.Sprint(rec),
					"request_id": middleware.GetReqID(r.Context()),
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. It returns an error only when the listener fails.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting redmerce backend", map[string]interface{}{
			"port":        s.Config.Port,
			"environment": s.Config.Environment,
			"provider":    s.Config.ResolvedProvider(),
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("Server shutdown error", nil)
		return err
	}
	s.logger.Info("Server stopped gracefully", nil)
	return nil
}
