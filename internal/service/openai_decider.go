package service

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIDecider decides through the OpenAI chat completions API in JSON mode.
type OpenAIDecider struct {
	client *openai.Client
	model  string
}

// NewOpenAIDecider creates a decider for apiKey and model.
func NewOpenAIDecider(apiKey, model string) *OpenAIDecider {
	return NewOpenAIDeciderWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAIDeciderWithConfig creates a decider from a client config.
func NewOpenAIDeciderWithConfig(cfg openai.ClientConfig, model string) *OpenAIDecider {
	return &OpenAIDecider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (d *OpenAIDecider) Decide(ctx context.Context, state *PromptState) (Action, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: state.Prompt()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return Action{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Action{}, errors.New("openai completion: no choices")
	}
	return ParseAction(state.Phase, resp.Choices[0].Message.Content)
}
