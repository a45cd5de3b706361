package llm

import (
	"context"
	"fmt"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const jsonToolName = "json"

// GenerateJSON forces the model to answer through a single tool call whose
// parameters follow schema, and returns the raw JSON arguments.
func GenerateJSON(ctx context.Context, client LLMClient, conv []openai.ChatCompletionMessage, model string, schema jsonschema.Definition) (string, error) {
	decision := openai.ChatCompletionRequest{
		Model:    model,
		Messages: conv,
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:       jsonToolName,
					Parameters: schema,
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: jsonToolName},
		},
	}

	resp, err := client.CreateChatCompletion(ctx, decision)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) != 1 {
		return "", fmt.Errorf("no choices: %d", len(resp.Choices))
	}

	msg := resp.Choices[0].Message

	if len(msg.ToolCalls) == 0 {
		// Some servers ignore tool_choice and answer in plain content
		if msg.Content != "" {
			return msg.Content, nil
		}
		return "", fmt.Errorf("no tool calls: %d", len(msg.ToolCalls))
	}

	xlog.Debug("JSON generated", "arguments", msg.ToolCalls[0].Function.Arguments)

	return msg.ToolCalls[0].Function.Arguments, nil
}
