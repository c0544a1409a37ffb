// Package service runs one chat turn through the shopping pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ernaz100/redmerce/internal/apperrors"
	"github.com/ernaz100/redmerce/internal/config"
	"github.com/ernaz100/redmerce/internal/logger"
	"github.com/ernaz100/redmerce/internal/metrics"
	"github.com/ernaz100/redmerce/internal/model"
	"github.com/ernaz100/redmerce/internal/response"
)

// ErrorReply is the response text of the error envelope.
const ErrorReply = "I apologize, but I encountered an error while processing your request. Please try again."

// ProductFinder is the Step 1 search.
type ProductFinder interface {
	FindProducts(ctx context.Context, query string) string
}

// DetailFinder is the Step 2 shopping lookup.
type DetailFinder interface {
	Lookup(ctx context.Context, name string) []model.ProductDetail
}

// state is a node of the turn state machine.
type state int

const (
	stateAwaitingIntent state = iota
	stateClarifying
	stateSearching
	stateDetailingEach
	stateFinishing
	stateDone
)

func (s state) String() string {
	switch s {
	case stateAwaitingIntent:
		return "awaiting_intent"
	case stateClarifying:
		return "clarifying"
	case stateSearching:
		return "searching"
	case stateDetailingEach:
		return "detailing_each"
	case stateFinishing:
		return "finishing"
	case stateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AgentService processes chat messages.
type AgentService struct {
	decider    Decider
	finder     ProductFinder
	details    DetailFinder
	normalizer *response.Normalizer
	logger     logger.Logger

	maxCandidates int
	concurrency   int
}

// Option customizes an AgentService.
type Option func(*AgentService)

// WithMaxCandidates caps how many candidates get a detail lookup.
func WithMaxCandidates(n int) Option {
	return func(s *AgentService) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithDetailConcurrency sets how many detail lookups run at once.
func WithDetailConcurrency(n int) Option {
	return func(s *AgentService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewAgentService creates an AgentService.
func NewAgentService(decider Decider, finder ProductFinder, details DetailFinder, log logger.Logger, opts ...Option) *AgentService {
	s := &AgentService{
		decider:       decider,
		finder:        finder,
		details:       details,
		normalizer:    response.New(),
		logger:        log,
		maxCandidates: 5,
		concurrency:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDecider picks the decision backend from cfg.
func NewDecider(ctx context.Context, cfg *config.Config, log logger.Logger) (Decider, error) {
	switch cfg.ResolvedProvider() {
	case config.ProviderOpenAI:
		if !apperrors.CheckAPIKey(log, "OPENAI_API_KEY", cfg.OpenAI.APIKey) {
			return NewUnavailableDecider(), nil
		}
		log.Info("Using OpenAI decision model", map[string]interface{}{"model": cfg.Agent.OpenAIModel})
		return NewOpenAIDecider(cfg.OpenAI.APIKey, cfg.Agent.OpenAIModel), nil
	case config.ProviderGemini:
		if !apperrors.CheckAPIKey(log, "GOOGLE_API_KEY", cfg.Google.APIKey) {
			return NewUnavailableDecider(), nil
		}
		log.Info("Using Gemini decision model", map[string]interface{}{"model": cfg.Agent.GeminiModel})
		return NewGeminiDecider(ctx, cfg.Google.APIKey, cfg.Agent.GeminiModel)
	default:
		log.Warn("No decision model configured; chat turns will return the error envelope", nil)
		return NewUnavailableDecider(), nil
	}
}

// turn holds the request-scoped data of one ProcessMessage call.
type turn struct {
	state      state
	prompt     PromptState
	candidates []model.ProductCandidate
	envelope   model.Envelope
	log        logger.Logger
}

// ProcessMessage runs one chat turn. Failures become the error envelope.
func (s *AgentService) ProcessMessage(ctx context.Context, message string, chatContext model.ChatContext) (env model.Envelope) {
	metrics.TurnsActive.Inc()
	defer metrics.TurnsActive.Dec()

	t := &turn{
		state: stateAwaitingIntent,
		prompt: PromptState{
			Phase:   PhaseIntent,
			Message: message,
			Context: chatContext,
		},
		log: logger.FromContext(ctx, s.logger).With(map[string]interface{}{"run_id": uuid.NewString()}),
	}
	t.log.Info("Processing message", map[string]interface{}{"message": message})

	defer func() {
		if r := recover(); r != nil {
			t.log.Error("Panic while processing message", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			env = s.errorEnvelope(fmt.Errorf("panic: %v", r))
		}
		metrics.ChatTurns.WithLabelValues(env.Type(), env.Status()).Inc()
	}()

	if err := s.run(ctx, t); err != nil {
		t.log.WithError(err).Error("Error in process message", map[string]interface{}{"state": t.state.String()})
		return s.errorEnvelope(err)
	}
	t.log.Info("Message processed", map[string]interface{}{
		"type":     t.envelope.Type(),
		"products": len(t.prompt.Products),
	})
	return t.envelope
}

func (s *AgentService) run(ctx context.Context, t *turn) error {
	for t.state != stateDone {
		var err error
		switch t.state {
		case stateAwaitingIntent:
			err = s.awaitIntent(ctx, t)
		case stateClarifying:
			t.state = stateDone
		case stateSearching:
			s.search(ctx, t)
		case stateDetailingEach:
			err = s.detailEach(ctx, t)
		case stateFinishing:
			err = s.finish(ctx, t)
		default:
			err = fmt.Errorf("unexpected state %s", t.state)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *AgentService) awaitIntent(ctx context.Context, t *turn) error {
	action, err := s.decider.Decide(ctx, &t.prompt)
	if err != nil {
		return fmt.Errorf("decide intent: %w", err)
	}

	switch action.Kind {
	case ActionClarify:
		t.envelope = s.conversational(map[string]interface{}{model.KeyResponse: action.Text})
		t.state = stateClarifying
	case ActionFinish:
		t.envelope = s.conversational(action.Draft)
		t.state = stateClarifying
	case ActionSearch:
		t.prompt.Query = action.Query
		t.state = stateSearching
	default:
		return fmt.Errorf("action %q not allowed in state %s", action.Kind, t.state)
	}
	t.log.Debug("Intent decided", map[string]interface{}{"action": string(action.Kind)})
	return nil
}

// conversational normalizes draft and clears any products: a turn that did
// not run the pipeline never reports products.
func (s *AgentService) conversational(draft interface{}) model.Envelope {
	env := s.normalizer.Normalize(draft)
	env[model.KeyProducts] = []interface{}{}
	env[model.KeyType] = model.TypeConversational
	return env
}

func (s *AgentService) search(ctx context.Context, t *turn) {
	raw := s.finder.FindProducts(ctx, t.prompt.Query)

	candidates, err := model.ParseCandidates(raw)
	var toolErr *model.ToolError
	switch {
	case errors.As(err, &toolErr):
		t.prompt.SearchError = toolErr.Message
	case errors.Is(err, model.ErrNoCandidates):
	case err != nil:
		t.prompt.SearchError = err.Error()
	}

	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}
	t.candidates = candidates
	t.log.Info("Product search completed", map[string]interface{}{
		"query":      t.prompt.Query,
		"candidates": len(candidates),
		"error":      t.prompt.SearchError,
	})

	if len(candidates) == 0 {
		t.state = stateFinishing
		return
	}
	t.state = stateDetailingEach
}

// detailEach issues exactly one Detail action per candidate. Results are
// stored by index so products keep the candidate order.
func (s *AgentService) detailEach(ctx context.Context, t *turn) error {
	products := make([]model.EnrichedProduct, len(t.candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range t.candidates {
		action := Action{Kind: ActionDetail, ProductName: c.Name}
		g.Go(func() error {
			details, err := s.detail(gctx, action)
			if err != nil {
				return err
			}
			products[i] = model.Enrich(c, details)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t.prompt.Products = products
	t.state = stateFinishing
	return nil
}

// detail runs one Detail action, turning a panic into an error.
func (s *AgentService) detail(ctx context.Context, action Action) (details []model.ProductDetail, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detail lookup for %q panicked: %v", action.ProductName, r)
		}
	}()
	return s.details.Lookup(ctx, action.ProductName), nil
}

func (s *AgentService) finish(ctx context.Context, t *turn) error {
	if t.prompt.Products == nil {
		t.prompt.Products = []model.EnrichedProduct{}
	}
	t.prompt.Phase = PhaseFinishing

	action, err := s.decider.Decide(ctx, &t.prompt)
	if err != nil {
		return fmt.Errorf("decide final answer: %w", err)
	}
	if action.Kind != ActionFinish {
		return fmt.Errorf("action %q not allowed in state %s", action.Kind, t.state)
	}

	env := s.normalizer.Normalize(action.Draft)
	env[model.KeyProducts] = t.prompt.Products
	env[model.KeyType] = model.TypeProductSearch
	t.envelope = env
	t.state = stateDone
	return nil
}

func (s *AgentService) errorEnvelope(err error) model.Envelope {
	return model.Envelope{
		model.KeyStatus:    model.StatusError,
		model.KeyResponse:  ErrorReply,
		model.KeyProducts:  []interface{}{},
		model.KeyType:      model.TypeConversational,
		model.KeyError:     apperrors.SanitizeMessage(err.Error()),
		model.KeyTimestamp: model.Timestamp(time.Now()),
	}
}
