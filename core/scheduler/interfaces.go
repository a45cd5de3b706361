package scheduler

import (
	"context"

	"github.com/mudler/LocalPlanner/core/types"
)

// AgentSource is the slice of the agent pool the executor works against.
type AgentSource interface {
	List() []types.Agent
	RecordActionResult(id, taskID string, result types.ActionResult, report string) bool
}

// ActionRunner carries out the action attached to a task.
// An error is recorded as an unsuccessful result.
type ActionRunner interface {
	Run(ctx context.Context, agent types.Agent, task types.Task) (types.ActionResult, error)
}

// ActionRunnerFunc adapts a function to ActionRunner.
type ActionRunnerFunc func(ctx context.Context, agent types.Agent, task types.Task) (types.ActionResult, error)

func (f ActionRunnerFunc) Run(ctx context.Context, agent types.Agent, task types.Task) (types.ActionResult, error) {
	return f(ctx, agent, task)
}
