package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

// OpenAIModel talks to any OpenAI-compatible endpoint.
type OpenAIModel struct {
	client    LLMClient
	planModel string
	chatModel string
}

func NewOpenAIModel(client LLMClient, planModel, chatModel string) *OpenAIModel {
	if chatModel == "" {
		chatModel = planModel
	}
	return &OpenAIModel{client: client, planModel: planModel, chatModel: chatModel}
}

func (m *OpenAIModel) GeneratePlan(ctx context.Context, req PlanRequest) (string, error) {
	return GenerateJSON(ctx, m.client, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
	}, m.planModel, req.Schema)
}

// Converse keeps the conversation client side: every replayed turn is sent
// as a user message and the model's answer to it is kept in the context.
func (m *OpenAIModel) Converse(ctx context.Context, req ConverseRequest) (string, error) {
	conv := []openai.ChatCompletionMessage{}
	if req.SystemInstruction != "" {
		conv = append(conv, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}

	for _, turn := range req.History {
		var err error
		conv, _, err = m.send(ctx, conv, turn.Text)
		if err != nil {
			return "", err
		}
	}

	_, reply, err := m.send(ctx, conv, req.Input)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (m *OpenAIModel) send(ctx context.Context, conv []openai.ChatCompletionMessage, text string) ([]openai.ChatCompletionMessage, string, error) {
	conv = append(conv, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.chatModel,
		Messages: conv,
	})
	if err != nil {
		return conv, "", err
	}
	if len(resp.Choices) == 0 {
		return conv, "", fmt.Errorf("no choices returned")
	}

	reply := resp.Choices[0].Message.Content
	xlog.Debug("Model replied", "model", m.chatModel, "turns", len(conv))

	return append(conv, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	}), reply, nil
}
