package llm_service

import (
	"context"

	"github.com/serisow/ailab/lab_type"
)

type MockLLMService struct {
	CallLLMFunc func(ctx context.Context, cfg Config, messages []lab_type.ChatMessage) (string, error)
}

func (m *MockLLMService) CallLLM(ctx context.Context, cfg Config, messages []lab_type.ChatMessage) (string, error) {
	if m.CallLLMFunc != nil {
		return m.CallLLMFunc(ctx, cfg, messages)
	}
	return "mock response", nil
}
