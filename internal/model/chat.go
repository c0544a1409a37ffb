package model

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string      `json:"message" mapstructure:"message"`
	Context ChatContext `json:"context" mapstructure:"context"`
}

// ChatContext carries the conversation state the frontend keeps between turns.
type ChatContext struct {
	OriginalQuery   string                   `json:"original_query,omitempty" mapstructure:"original_query"`
	ChatHistory     []ChatMessage            `json:"chat_history,omitempty" mapstructure:"chat_history"`
	CurrentProducts []map[string]interface{} `json:"current_products,omitempty" mapstructure:"current_products"`
}

// ChatMessage is one prior turn.
type ChatMessage struct {
	Role    string `json:"role" mapstructure:"role"`
	Content string `json:"content" mapstructure:"content"`
}

// ErrorResponse is the short error body used for request-level rejections.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}
