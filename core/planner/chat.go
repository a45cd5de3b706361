package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/LocalPlanner/pkg/llm"
	"github.com/mudler/xlog"
)

// HistoryWindow is how many of the most recent chat messages are replayed.
// Older messages are dropped.
const HistoryWindow = 10

// ErrAIUnavailable is the single user-facing error of the chat responder.
var ErrAIUnavailable = errors.New("the AI is currently unavailable, please try again later")

// Responder answers chat messages in the voice of an agent.
type Responder struct {
	model llm.Model
}

func NewResponder(model llm.Model) *Responder {
	return &Responder{model: model}
}

// History maps the trailing HistoryWindow messages to model turns.
func History(chat []types.Message) []llm.Turn {
	if len(chat) > HistoryWindow {
		chat = chat[len(chat)-HistoryWindow:]
	}
	turns := make([]llm.Turn, 0, len(chat))
	for _, m := range chat {
		role := llm.RoleModel
		if m.Role == types.RoleUser {
			role = llm.RoleUser
		}
		turns = append(turns, llm.Turn{Role: role, Text: m.Content})
	}
	return turns
}

// SystemInstruction describes the agent and a snapshot of its task plan.
func SystemInstruction(agent types.Agent) (string, error) {
	return templateExecute(systemTemplate, agent)
}

// Respond never mutates agent. The agent's chat is expected to already
// contain input as its last message, the way the workspace appends it first.
func (r *Responder) Respond(ctx context.Context, agent types.Agent, input string) (string, error) {
	system, err := SystemInstruction(agent)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAIUnavailable, err)
	}

	reply, err := r.model.Converse(ctx, llm.ConverseRequest{
		SystemInstruction: system,
		History:           History(agent.Chat),
		Input:             input,
	})
	if err != nil {
		xlog.Error("Error getting agent response", "agent", agent.ID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrAIUnavailable, err)
	}
	return strings.TrimSpace(reply), nil
}
