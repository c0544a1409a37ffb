package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ernaz100/redmerce/internal/model"
	"github.com/ernaz100/redmerce/internal/validator"
)

// Phase is the point in a turn at which the Decider is consulted.
type Phase string

const (
	// PhaseIntent decides between talking back and starting a product search.
	PhaseIntent Phase = "awaiting_intent"
	// PhaseFinishing composes the final reply over the enriched products.
	PhaseFinishing Phase = "finishing"
)

// ActionKind tags an Action.
type ActionKind string

const (
	ActionClarify ActionKind = "clarify"
	ActionSearch  ActionKind = "search"
	ActionDetail  ActionKind = "detail"
	ActionFinish  ActionKind = "finish"
)

// Action is the next step chosen by the Decider.
type Action struct {
	Kind ActionKind
	// Text is the reply for Clarify.
	Text string
	// Query is the product search for Search.
	Query string
	// ProductName is the lookup target for Detail.
	ProductName string
	// Draft is the composed envelope for Finish: a map or raw text.
	Draft interface{}
}

// PromptState is what the Decider sees.
type PromptState struct {
	Phase       Phase
	Message     string
	Context     model.ChatContext
	Query       string
	Products    []model.EnrichedProduct
	SearchError string
}

// Decider chooses the next Action. Implementations wrap a language model.
type Decider interface {
	Decide(ctx context.Context, state *PromptState) (Action, error)
}

// ErrDeciderUnavailable is returned when no language model is configured.
var ErrDeciderUnavailable = errors.New("no language model configured: set OPENAI_API_KEY or GOOGLE_API_KEY")

type unavailableDecider struct{}

// NewUnavailableDecider returns a Decider whose every call fails.
func NewUnavailableDecider() Decider {
	return unavailableDecider{}
}

func (unavailableDecider) Decide(context.Context, *PromptState) (Action, error) {
	return Action{}, ErrDeciderUnavailable
}

// SystemPrompt frames every decision.
const SystemPrompt = `You are a shopping agent called 'redmerce'. Your job is to help users find the best products with complete details.

Always respond with a single JSON object and nothing else.

BEHAVIOR RULES:
1. If the user is being conversational, or you need clarification about their shopping needs (budget, features, preferences), reply conversationally.
2. If the user has clearly specified what they want to buy, start a product search. The system then finds 3-5 products and looks up real-time price, purchase link and image for each of them.
3. Be helpful and ask specific questions about budget, features, or preferences when needed.`

const intentInstructions = `Analyze the user's message and decide what to do next.

- To talk back to the user or ask for clarification, respond with:
  {"action": "clarify", "response": "<your conversational reply>"}
- To search for products, respond with:
  {"action": "search", "query": "<concise product search query including budget and key requirements>"}`

const finishingInstructions = `The product search has finished. Write the final answer for the user.

Respond with:
{"status": "success", "response": "<your reply>", "type": "product_search"}

In the response text, cover every product listed above: what the pros and cons of each product are and why you recommend it. Mention prices when they are known. If no products were found, say so and suggest how the user could refine the request.`

// Prompt renders state as the user turn sent to the model.
func (s *PromptState) Prompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "User message: %q\n", validator.SanitizeQuery(s.Message))
	ctxJSON, _ := json.Marshal(s.Context)
	fmt.Fprintf(&b, "Chat context: %s\n\n", ctxJSON)

	switch s.Phase {
	case PhaseFinishing:
		fmt.Fprintf(&b, "Search query: %q\n", s.Query)
		if s.SearchError != "" {
			fmt.Fprintf(&b, "Search error: %s\n", s.SearchError)
		}
		products, _ := json.MarshalIndent(s.Products, "", "  ")
		fmt.Fprintf(&b, "Products found (%d):\n%s\n\n", len(s.Products), products)
		b.WriteString(finishingInstructions)
	default:
		b.WriteString(intentInstructions)
	}
	return b.String()
}

// ParseAction decodes model output for phase into an Action.
func ParseAction(phase Phase, text string) (Action, error) {
	text = stripFences(text)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		// Plain prose is treated as the final reply.
		return Action{Kind: ActionFinish, Draft: text}, nil
	}

	if phase == PhaseFinishing {
		return Action{Kind: ActionFinish, Draft: obj}, nil
	}

	kind, _ := obj["action"].(string)
	switch ActionKind(kind) {
	case ActionSearch:
		query, _ := obj["query"].(string)
		if strings.TrimSpace(query) == "" {
			return Action{}, errors.New("search action without query")
		}
		return Action{Kind: ActionSearch, Query: query}, nil
	case ActionClarify:
		reply, _ := obj["response"].(string)
		if reply == "" {
			reply, _ = obj["text"].(string)
		}
		return Action{Kind: ActionClarify, Text: reply}, nil
	case ActionDetail:
		name, _ := obj["product_name"].(string)
		return Action{Kind: ActionDetail, ProductName: name}, nil
	case ActionFinish, "":
		delete(obj, "action")
		return Action{Kind: ActionFinish, Draft: obj}, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", kind)
	}
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
