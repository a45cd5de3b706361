package llm

import (
	"context"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Roles in the model service's conversational vocabulary.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior message of a conversation.
type Turn struct {
	Role string
	Text string
}

type PlanRequest struct {
	Prompt string
	Schema jsonschema.Definition
}

type ConverseRequest struct {
	SystemInstruction string
	History           []Turn
	Input             string
}

// Model is the capability the planner needs from a generative model service.
// GeneratePlan returns text that should be JSON conforming to the schema.
// Converse opens a fresh conversation, replays History one send at a time,
// then sends Input and returns the reply.
type Model interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (string, error)
	Converse(ctx context.Context, req ConverseRequest) (string, error)
}
