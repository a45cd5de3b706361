package types

import (
	"math"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

type ActionType string

const (
	ActionCalendarEvent ActionType = "calendar_event"
	ActionTask          ActionType = "task"
	ActionReminder      ActionType = "reminder"
	ActionEmail         ActionType = "email"
)

// ActionTypes lists every action category a task may carry.
var ActionTypes = []ActionType{ActionCalendarEvent, ActionTask, ActionReminder, ActionEmail}

func (a ActionType) Valid() bool {
	for _, t := range ActionTypes {
		if t == a {
			return true
		}
	}
	return false
}

// DateLayout is the calendar date format used for deadlines and due dates.
const DateLayout = "2006-01-02"

type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Task struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Priority     int           `json:"priority"`
	DurationMins int           `json:"duration_mins"`
	Due          string        `json:"due,omitempty"`
	ActionType   ActionType    `json:"action_type"`
	Status       TaskStatus    `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	ActionResult *ActionResult `json:"action_result,omitempty"`
}

func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.ActionResult != nil {
		r := *t.ActionResult
		if t.ActionResult.Details != nil {
			r.Details = make(map[string]any, len(t.ActionResult.Details))
			for k, v := range t.ActionResult.Details {
				r.Details[k] = v
			}
		}
		c.ActionResult = &r
	}
	return c
}

// DueDate parses the due date. ok is false when the task has none or it is malformed.
func (t Task) DueDate(loc *time.Location) (time.Time, bool) {
	if t.Due == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, t.Due, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Progress is round(100 * completed / total), or 0 for an empty plan.
func Progress(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Status == TaskStatusCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(tasks))))
}
