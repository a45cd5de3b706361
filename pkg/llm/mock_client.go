package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

type MockClient struct {
	CreateChatCompletionFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func (m *MockClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if m.CreateChatCompletionFunc != nil {
		return m.CreateChatCompletionFunc(ctx, req)
	}
	return openai.ChatCompletionResponse{}, nil
}

// MockModel is a Model whose behaviour is supplied by the test.
type MockModel struct {
	GeneratePlanFunc func(ctx context.Context, req PlanRequest) (string, error)
	ConverseFunc     func(ctx context.Context, req ConverseRequest) (string, error)
}

func (m *MockModel) GeneratePlan(ctx context.Context, req PlanRequest) (string, error) {
	if m.GeneratePlanFunc != nil {
		return m.GeneratePlanFunc(ctx, req)
	}
	return "", nil
}

func (m *MockModel) Converse(ctx context.Context, req ConverseRequest) (string, error) {
	if m.ConverseFunc != nil {
		return m.ConverseFunc(ctx, req)
	}
	return "", nil
}
