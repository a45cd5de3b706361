package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule is how often due tasks are polled.
const DefaultSchedule = "@every 1m"

// TaskRun represents a single execution of a task action
type TaskRun struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	TaskID     string    `json:"task_id"`
	RunAt      time.Time `json:"run_at"`
	DurationMs int64     `json:"duration_ms"`
	Status     string    `json:"status"` // "success", "error"
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func NewTaskRun(agentID, taskID string, at time.Time) *TaskRun {
	return &TaskRun{
		ID:      uuid.New().String(),
		AgentID: agentID,
		TaskID:  taskID,
		RunAt:   at,
	}
}

// ParseSchedule accepts standard five-field cron expressions and
// descriptors such as "@every 1m" or "@hourly".
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// IsDue reports whether the task should be executed on the given day:
// still pending, never executed, and due on or before today.
// Tasks without a due date are never executed automatically.
func IsDue(task types.Task, today time.Time) bool {
	if task.Status != types.TaskStatusPending || task.ActionResult != nil {
		return false
	}
	due, ok := task.DueDate(today.Location())
	if !ok {
		return false
	}
	return !due.After(today)
}

// Eligible reports whether the executor may act on behalf of the agent.
func Eligible(agent types.Agent) bool {
	return agent.Status == types.AgentStatusActive && agent.Config.AutoExecute && !agent.IsDeleting
}

// DailyLimit returns the agent's action budget for one calendar day.
func DailyLimit(agent types.Agent) int {
	if agent.Config.MaxDailyActions <= 0 {
		return types.DefaultMaxDailyActions
	}
	return agent.Config.MaxDailyActions
}

// ReminderRunner is the built-in action runner. It does not reach any
// external service: the action is reported back to the agent's chat.
type ReminderRunner struct{}

func (ReminderRunner) Run(_ context.Context, agent types.Agent, task types.Task) (types.ActionResult, error) {
	var msg string
	switch task.ActionType {
	case types.ActionCalendarEvent:
		msg = fmt.Sprintf("📅 Time to put %q on your calendar (%d min).", task.Title, task.DurationMins)
	case types.ActionEmail:
		msg = fmt.Sprintf("✉️ Reminder: an email is due for %q.", task.Title)
	default:
		msg = fmt.Sprintf("⏰ Reminder: %q is due.", task.Title)
	}

	return types.ActionResult{
		Success: true,
		Message: msg,
		Details: map[string]any{
			"action_type": string(task.ActionType),
			"due":         task.Due,
			"agent":       agent.Name,
		},
	}, nil
}
