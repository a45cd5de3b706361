package types

import (
	"fmt"
	"time"
)

type AgentStatus string

const (
	AgentStatusActive AgentStatus = "active"
	AgentStatusPaused AgentStatus = "paused"
)

// Toggle flips between active and paused.
func (s AgentStatus) Toggle() AgentStatus {
	if s == AgentStatusActive {
		return AgentStatusPaused
	}
	return AgentStatusActive
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// DefaultMaxDailyActions caps the actions an agent may run per day.
const DefaultMaxDailyActions = 100

type AgentConfig struct {
	AutoExecute     bool `json:"auto_execute"`
	MaxDailyActions int  `json:"max_daily_actions"`
}

// Agent is a goal pursued through a generated task plan and a chat.
// Progress is derived from Tasks and must only be set through Recompute.
type Agent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Goal        string      `json:"goal"`
	Status      AgentStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Deadline    string      `json:"deadline,omitempty"`
	Priority    Priority    `json:"priority"`
	Tasks       []Task      `json:"tasks"`
	Progress    int         `json:"progress"`
	MemoryShort []any       `json:"memory_short"`
	MemoryLong  []any       `json:"memory_long"`
	Chat        []Message   `json:"chat"`
	Config      AgentConfig `json:"config"`

	// IsDeleting marks an agent whose removal is pending.
	IsDeleting bool `json:"isDeleting,omitempty"`
}

// Recompute refreshes the derived progress percentage.
func (a *Agent) Recompute() {
	a.Progress = Progress(a.Tasks)
}

// TaskIndex returns the position of the task with the given id, or -1.
func (a Agent) TaskIndex(taskID string) int {
	for i := range a.Tasks {
		if a.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so that callers can never alias stored state.
func (a Agent) Clone() Agent {
	c := a
	if a.Tasks != nil {
		c.Tasks = make([]Task, len(a.Tasks))
		for i, t := range a.Tasks {
			c.Tasks[i] = t.Clone()
		}
	}
	if a.Chat != nil {
		c.Chat = append([]Message{}, a.Chat...)
	}
	if a.MemoryShort != nil {
		c.MemoryShort = append([]any{}, a.MemoryShort...)
	}
	if a.MemoryLong != nil {
		c.MemoryLong = append([]any{}, a.MemoryLong...)
	}
	return c
}

// WithMessage returns a copy of the agent with msg appended to the chat.
func (a Agent) WithMessage(msg Message) Agent {
	c := a.Clone()
	c.Chat = append(c.Chat, msg)
	return c
}

func CloneAgents(agents []Agent) []Agent {
	if agents == nil {
		return nil
	}
	out := make([]Agent, len(agents))
	for i, a := range agents {
		out[i] = a.Clone()
	}
	return out
}
