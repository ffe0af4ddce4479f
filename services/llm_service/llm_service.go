package llm_service

import (
	"context"

	"github.com/serisow/ailab/lab_type"
)

// Config carries per-call settings for a hosted model API.
type Config struct {
	APIURL      string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type LLMService interface {
	CallLLM(ctx context.Context, cfg Config, messages []lab_type.ChatMessage) (string, error)
}

// ToolDefinition is the schema advertised to the model for one tool.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ChatTurn is the accumulated outcome of one streamed model turn. When
// the model requests tools, ToolCalls is populated and Content may be
// partial or empty.
type ChatTurn struct {
	Content      string
	ToolCalls    []lab_type.ToolCall
	FinishReason string
}
