package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

const (
	DefaultGeminiPlanModel = "gemini-2.5-pro"
	DefaultGeminiChatModel = "gemini-2.5-flash"
)

// GeminiModel uses the Gemini API structured output and chat sessions.
type GeminiModel struct {
	client    *genai.Client
	planModel string
	chatModel string
}

func NewGeminiModel(ctx context.Context, apiKey, planModel, chatModel string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if planModel == "" {
		planModel = DefaultGeminiPlanModel
	}
	if chatModel == "" {
		chatModel = DefaultGeminiChatModel
	}
	return &GeminiModel{client: client, planModel: planModel, chatModel: chatModel}, nil
}

func (m *GeminiModel) GeneratePlan(ctx context.Context, req PlanRequest) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.planModel, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   GeminiSchema(req.Schema),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Converse opens one chat session per call; prior turns are re-sent one by one.
func (m *GeminiModel) Converse(ctx context.Context, req ConverseRequest) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	chat, err := m.client.Chats.Create(ctx, m.chatModel, config, nil)
	if err != nil {
		return "", err
	}

	for _, turn := range req.History {
		if _, err := chat.SendMessage(ctx, genai.Part{Text: turn.Text}); err != nil {
			return "", err
		}
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: req.Input})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GeminiSchema converts a JSON schema definition to the Gemini schema dialect.
func GeminiSchema(d jsonschema.Definition) *genai.Schema {
	s := &genai.Schema{
		Type:        geminiType(d.Type),
		Description: d.Description,
		Enum:        d.Enum,
		Required:    d.Required,
	}
	if d.Items != nil {
		s.Items = GeminiSchema(*d.Items)
	}
	if len(d.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(d.Properties))
		for name, p := range d.Properties {
			s.Properties[name] = GeminiSchema(p)
		}
	}
	return s
}

func geminiType(t jsonschema.DataType) genai.Type {
	switch t {
	case jsonschema.Object:
		return genai.TypeObject
	case jsonschema.Array:
		return genai.TypeArray
	case jsonschema.Integer:
		return genai.TypeInteger
	case jsonschema.Number:
		return genai.TypeNumber
	case jsonschema.Boolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
