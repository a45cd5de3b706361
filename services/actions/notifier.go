// Package actions carries out task actions for the auto-executor by
// delivering reminders to the channels the user configured.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mudler/LocalPlanner/core/scheduler"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/xlog"
)

// Notification is a rendered task reminder.
type Notification struct {
	Agent      string
	Task       string
	ActionType types.ActionType
	Subject    string
	Body       string
}

// Notifier delivers a notification to one external channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// NewNotification renders the reminder for a task.
func NewNotification(agent types.Agent, task types.Task, headline string) Notification {
	var body strings.Builder
	body.WriteString(headline)
	body.WriteString("\n")
	if task.Description != "" {
		fmt.Fprintf(&body, "\n%s\n", task.Description)
	}
	if task.Due != "" {
		fmt.Fprintf(&body, "\nDue: %s", task.Due)
	}
	if task.DurationMins > 0 {
		fmt.Fprintf(&body, "\nEstimated time: %d min", task.DurationMins)
	}
	fmt.Fprintf(&body, "\nGoal: %s\n", agent.Goal)

	return Notification{
		Agent:      agent.Name,
		Task:       task.Title,
		ActionType: task.ActionType,
		Subject:    fmt.Sprintf("[%s] %s", agent.Name, task.Title),
		Body:       body.String(),
	}
}

// Runner is a scheduler.ActionRunner that posts the reminder to the chat
// and fans it out to every notifier. It fails only when notifiers are
// configured and none of them delivered.
type Runner struct {
	notifiers []Notifier
}

func NewRunner(notifiers ...Notifier) *Runner {
	return &Runner{notifiers: notifiers}
}

func (r *Runner) Notifiers() []string {
	names := make([]string, 0, len(r.notifiers))
	for _, n := range r.notifiers {
		names = append(names, n.Name())
	}
	return names
}

func (r *Runner) Run(ctx context.Context, agent types.Agent, task types.Task) (types.ActionResult, error) {
	result, err := scheduler.ReminderRunner{}.Run(ctx, agent, task)
	if err != nil {
		return result, err
	}
	if len(r.notifiers) == 0 {
		return result, nil
	}

	n := NewNotification(agent, task, result.Message)
	var (
		delivered []string
		errs      []error
	)
	for _, notifier := range r.notifiers {
		if err := notifier.Notify(ctx, n); err != nil {
			xlog.Warn("Notifier failed", "notifier", notifier.Name(), "task", task.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		delivered = append(delivered, notifier.Name())
	}

	if len(delivered) == 0 {
		return types.ActionResult{}, errors.Join(errs...)
	}

	result.Details["delivered"] = delivered
	result.Message = fmt.Sprintf("%s (sent via %s)", result.Message, strings.Join(delivered, ", "))
	if len(errs) > 0 {
		result.Details["errors"] = errors.Join(errs...).Error()
	}
	return result, nil
}
