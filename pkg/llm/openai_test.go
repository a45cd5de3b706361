package llm_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/mudler/LocalPlanner/pkg/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func textReply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

var _ = Describe("OpenAIModel", func() {
	schema := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"agent_name": {Type: jsonschema.String},
		},
		Required: []string{"agent_name"},
	}

	Context("GeneratePlan", func() {
		It("forces a json tool call and returns its arguments", func() {
			var captured openai.ChatCompletionRequest
			client := &MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					captured = req
					return openai.ChatCompletionResponse{
						Choices: []openai.ChatCompletionChoice{{
							Message: openai.ChatCompletionMessage{
								ToolCalls: []openai.ToolCall{{
									ID:   "call_1",
									Type: openai.ToolTypeFunction,
									Function: openai.FunctionCall{
										Name:      "json",
										Arguments: `{"agent_name":"Voyager"}`,
									},
								}},
							},
						}},
					}, nil
				},
			}

			m := NewOpenAIModel(client, "plan-model", "chat-model")
			out, err := m.GeneratePlan(context.Background(), PlanRequest{Prompt: "plan it", Schema: schema})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(`{"agent_name":"Voyager"}`))

			Expect(captured.Model).To(Equal("plan-model"))
			Expect(captured.Messages).To(HaveLen(1))
			Expect(captured.Messages[0].Content).To(Equal("plan it"))
			Expect(captured.Tools).To(HaveLen(1))
			Expect(captured.Tools[0].Function.Parameters).To(Equal(schema))
			Expect(captured.ToolChoice).To(Equal(openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: "json"},
			}))
		})

		It("fails when the model returns nothing usable", func() {
			client := &MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{}}}, nil
				},
			}
			_, err := NewOpenAIModel(client, "m", "").GeneratePlan(context.Background(), PlanRequest{Schema: schema})
			Expect(err).To(HaveOccurred())
		})

		It("accepts JSON answered as plain content", func() {
			client := &MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					return textReply(`{"agent_name":"Plain"}`), nil
				},
			}
			out, err := GenerateJSON(context.Background(), client, []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: "guidance"},
			}, "m", schema)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(`{"agent_name":"Plain"}`))
		})

		It("returns the client error", func() {
			client := &MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					return openai.ChatCompletionResponse{}, errors.New("connection refused")
				},
			}
			_, err := NewOpenAIModel(client, "m", "").GeneratePlan(context.Background(), PlanRequest{Schema: schema})
			Expect(err).To(MatchError("connection refused"))
		})
	})

	Context("Converse", func() {
		It("replays each history turn before sending the input", func() {
			requests := []openai.ChatCompletionRequest{}
			client := &MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					requests = append(requests, req)
					return textReply(fmt.Sprintf("  reply %d  ", len(requests))), nil
				},
			}

			m := NewOpenAIModel(client, "plan-model", "chat-model")
			out, err := m.Converse(context.Background(), ConverseRequest{
				SystemInstruction: "You are the agent",
				History: []Turn{
					{Role: RoleModel, Text: "Hello!"},
					{Role: RoleUser, Text: "Hi"},
				},
				Input: "What next?",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("reply 3"))
			Expect(requests).To(HaveLen(3))

			last := requests[2]
			Expect(last.Model).To(Equal("chat-model"))
			Expect(last.Messages).To(HaveLen(6))
			Expect(last.Messages[0].Role).To(Equal(openai.ChatMessageRoleSystem))
			Expect(last.Messages[1].Content).To(Equal("Hello!"))
			Expect(last.Messages[1].Role).To(Equal(openai.ChatMessageRoleUser))
			Expect(last.Messages[2].Role).To(Equal(openai.ChatMessageRoleAssistant))
			Expect(last.Messages[3].Content).To(Equal("Hi"))
			Expect(last.Messages[5].Content).To(Equal("What next?"))
		})

		It("stops at the first transport error", func() {
			calls := 0
			client := &MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					calls++
					return openai.ChatCompletionResponse{}, errors.New("boom")
				},
			}
			_, err := NewOpenAIModel(client, "m", "").Converse(context.Background(), ConverseRequest{
				History: []Turn{{Role: RoleUser, Text: "a"}, {Role: RoleUser, Text: "b"}},
				Input:   "c",
			})
			Expect(err).To(MatchError("boom"))
			Expect(calls).To(Equal(1))
		})
	})
})
