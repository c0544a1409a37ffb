package service

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// GeminiDecider decides through an ADK model.LLM, normally Gemini.
type GeminiDecider struct {
	llm model.LLM
}

// NewGeminiDecider connects to Gemini with apiKey.
func NewGeminiDecider(ctx context.Context, apiKey, modelName string) (*GeminiDecider, error) {
	llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return NewLLMDecider(llm), nil
}

// NewLLMDecider wraps any ADK model.
func NewLLMDecider(llm model.LLM) *GeminiDecider {
	return &GeminiDecider{llm: llm}
}

// decisionSchema covers both phases: an action object while awaiting intent
// and an envelope draft while finishing.
var decisionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"action":   {Type: genai.TypeString, Enum: []string{string(ActionClarify), string(ActionSearch), string(ActionFinish)}},
		"query":    {Type: genai.TypeString},
		"status":   {Type: genai.TypeString, Enum: []string{"success", "error"}},
		"response": {Type: genai.TypeString},
		"type":     {Type: genai.TypeString, Enum: []string{"conversational", "product_search"}},
	},
}

func (d *GeminiDecider) Decide(ctx context.Context, state *PromptState) (Action, error) {
	req := &model.LLMRequest{
		Model:    d.llm.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(state.Prompt(), genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    decisionSchema,
			Temperature:       genai.Ptr[float32](0.2),
		},
	}

	var text strings.Builder
	for resp, err := range d.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return Action{}, fmt.Errorf("gemini generate: %w", err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil && part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}
	return ParseAction(state.Phase, text.String())
}
