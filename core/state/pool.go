// Package state owns the canonical agent collection. Every mutation builds
// a new collection, mirrors it to the store and notifies subscribers.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/LocalPlanner/core/storage"
	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/xlog"
)

// AgentsKey is the fixed storage key of the serialized collection.
const AgentsKey = "agents"

// DefaultDeleteDelay matches the dashboard exit animation.
const DefaultDeleteDelay = 500 * time.Millisecond

type pendingDelete struct {
	timer *time.Timer
}

// subscriber receives snapshots in commit order. A snapshot older than the
// last one delivered is dropped.
type subscriber struct {
	mu   sync.Mutex
	last uint64
	fn   func([]types.Agent)
}

// notification is a committed snapshot waiting to be delivered outside the
// pool lock.
type notification struct {
	seq      uint64
	snapshot []types.Agent
	subs     []*subscriber
}

func (n notification) deliver() {
	for _, s := range n.subs {
		s.mu.Lock()
		if n.seq > s.last {
			s.last = n.seq
			s.fn(n.snapshot)
		}
		s.mu.Unlock()
	}
}

type AgentPool struct {
	sync.Mutex
	store       storage.Store
	agents      []types.Agent
	selected    string
	subscribers map[int]*subscriber
	nextSub     int
	seq         uint64
	pending     map[string]*pendingDelete
	closed      bool

	now         func() time.Time
	newID       func() string
	deleteDelay time.Duration
}

type Option func(*AgentPool)

func WithClock(now func() time.Time) Option {
	return func(a *AgentPool) {
		a.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(a *AgentPool) {
		a.newID = newID
	}
}

func WithDeleteDelay(d time.Duration) Option {
	return func(a *AgentPool) {
		a.deleteDelay = d
	}
}

// NewAgentPool loads the collection from store, starting empty when
// nothing (or nothing readable) is stored.
func NewAgentPool(ctx context.Context, store storage.Store, opts ...Option) *AgentPool {
	a := &AgentPool{
		store:       store,
		subscribers: make(map[int]*subscriber),
		pending:     make(map[string]*pendingDelete),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
		deleteDelay: DefaultDeleteDelay,
	}
	for _, o := range opts {
		o(a)
	}

	a.agents = storage.ReadOr(ctx, store, AgentsKey, []types.Agent{})
	// A removal interrupted by shutdown counts as cancelled.
	for i := range a.agents {
		a.agents[i].IsDeleting = false
	}
	xlog.Info("Agent pool loaded", "agents", len(a.agents))
	return a
}

// Subscribe registers fn to receive a snapshot after every change.
func (a *AgentPool) Subscribe(fn func([]types.Agent)) (unsubscribe func()) {
	a.Lock()
	defer a.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subscribers[id] = &subscriber{fn: fn}
	return func() {
		a.Lock()
		defer a.Unlock()
		delete(a.subscribers, id)
	}
}

func (a *AgentPool) List() []types.Agent {
	a.Lock()
	defer a.Unlock()
	return types.CloneAgents(a.agents)
}

func (a *AgentPool) Get(id string) (types.Agent, bool) {
	a.Lock()
	defer a.Unlock()
	if i := a.index(id); i >= 0 {
		return a.agents[i].Clone(), true
	}
	return types.Agent{}, false
}

// Select opens an agent in the workspace. Unknown ids are ignored.
func (a *AgentPool) Select(id string) bool {
	a.Lock()
	defer a.Unlock()
	if a.index(id) < 0 {
		return false
	}
	a.selected = id
	return true
}

func (a *AgentPool) ClearSelection() {
	a.Lock()
	defer a.Unlock()
	a.selected = ""
}

// Selected returns the agent open in the workspace, if any.
func (a *AgentPool) Selected() (types.Agent, bool) {
	a.Lock()
	defer a.Unlock()
	if i := a.index(a.selected); i >= 0 {
		return a.agents[i].Clone(), true
	}
	return types.Agent{}, false
}

// Create turns a plan into a new active agent, appends it and opens it.
func (a *AgentPool) Create(plan types.Plan, wizard types.WizardData) types.Agent {
	now := a.now()

	priority := wizard.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}

	tasks := make([]types.Task, 0, len(plan.Tasks))
	for _, t := range plan.Tasks {
		tasks = append(tasks, types.Task{
			ID:           a.newID(),
			Title:        t.Title,
			Description:  t.Description,
			Priority:     t.Priority,
			DurationMins: t.DurationMins,
			Due:          t.Due,
			ActionType:   t.ActionType,
			Status:       types.TaskStatusPending,
			CreatedAt:    now,
		})
	}

	agent := types.Agent{
		ID:          a.newID(),
		Name:        plan.AgentName,
		Description: plan.Description,
		Goal:        wizard.Goal,
		Status:      types.AgentStatusActive,
		CreatedAt:   now,
		Deadline:    wizard.Deadline,
		Priority:    priority,
		Tasks:       tasks,
		MemoryShort: []any{},
		MemoryLong:  []any{},
		Chat: []types.Message{
			types.NewMessage(types.RoleAssistant, greeting(plan.AgentName, wizard.Goal), now),
		},
		Config: types.AgentConfig{
			AutoExecute:     wizard.AutoExecute,
			MaxDailyActions: types.DefaultMaxDailyActions,
		},
	}
	agent.Recompute()

	a.Lock()
	next := append(types.CloneAgents(a.agents), agent)
	a.selected = agent.ID
	n := a.commit(next)
	a.Unlock()
	n.deliver()

	xlog.Info("Agent created", "id", agent.ID, "name", agent.Name, "tasks", len(tasks))
	return agent.Clone()
}

func greeting(name, goal string) string {
	return fmt.Sprintf("Hello! I'm %s. My goal is to help you with: \"%s\". I've created a plan to get us started. Let me know if you have any questions!", name, goal)
}

// Update replaces the agent with fn's result. fn receives a private copy.
// Progress is recomputed afterwards. Unknown ids are a no-op.
func (a *AgentPool) Update(id string, fn func(types.Agent) types.Agent) bool {
	_, ok := a.apply(id, func(agent types.Agent) (types.Agent, bool) {
		return fn(agent), true
	})
	return ok
}

// ToggleStatus flips active and paused.
func (a *AgentPool) ToggleStatus(id string) bool {
	return a.Update(id, func(agent types.Agent) types.Agent {
		agent.Status = agent.Status.Toggle()
		return agent
	})
}

// AppendUserMessage returns the updated agent so it can be handed to the
// chat responder before the reply exists.
func (a *AgentPool) AppendUserMessage(id, text string) (types.Agent, bool) {
	return a.apply(id, func(agent types.Agent) (types.Agent, bool) {
		return agent.WithMessage(types.NewMessage(types.RoleUser, text, a.now())), true
	})
}

// AppendAssistantMessage is used for replies and for error texts alike.
func (a *AgentPool) AppendAssistantMessage(id, text string) bool {
	_, ok := a.apply(id, func(agent types.Agent) (types.Agent, bool) {
		return agent.WithMessage(types.NewMessage(types.RoleAssistant, text, a.now())), true
	})
	return ok
}

// CompleteTask marks a task completed and confirms it in the chat. A task
// that is missing or already completed is left untouched.
func (a *AgentPool) CompleteTask(id, taskID string) bool {
	_, ok := a.apply(id, func(agent types.Agent) (types.Agent, bool) {
		i := agent.TaskIndex(taskID)
		if i < 0 || agent.Tasks[i].Status == types.TaskStatusCompleted {
			return agent, false
		}
		now := a.now()
		agent.Tasks[i].Status = types.TaskStatusCompleted
		agent.Tasks[i].CompletedAt = &now
		agent.Chat = append(agent.Chat, types.NewMessage(types.RoleAssistant,
			fmt.Sprintf("✅ Task completed: \"%s\"", agent.Tasks[i].Title), now))
		return agent, true
	})
	return ok
}

// RecordActionResult stores the outcome of an executed task action and
// optionally reports it in the chat.
func (a *AgentPool) RecordActionResult(id, taskID string, result types.ActionResult, report string) bool {
	_, ok := a.apply(id, func(agent types.Agent) (types.Agent, bool) {
		i := agent.TaskIndex(taskID)
		if i < 0 {
			return agent, false
		}
		r := result
		agent.Tasks[i].ActionResult = &r
		if report != "" {
			agent.Chat = append(agent.Chat, types.NewMessage(types.RoleAssistant, report, a.now()))
		}
		return agent, true
	})
	return ok
}

// apply runs fn on a copy of the agent and commits the result when fn
// reports a change.
func (a *AgentPool) apply(id string, fn func(types.Agent) (types.Agent, bool)) (types.Agent, bool) {
	a.Lock()
	i := a.index(id)
	if i < 0 {
		a.Unlock()
		return types.Agent{}, false
	}

	updated, changed := fn(a.agents[i].Clone())
	if !changed {
		a.Unlock()
		return types.Agent{}, false
	}
	// fn may keep its argument, so the stored agent is a fresh copy.
	updated = updated.Clone()
	updated.Recompute()

	next := make([]types.Agent, len(a.agents))
	copy(next, a.agents)
	next[i] = updated

	n := a.commit(next)
	a.Unlock()
	n.deliver()
	return updated.Clone(), true
}

// commit installs next and mirrors it to the store. Storage failures are
// logged only: the in-memory collection stays authoritative.
// Must be called with the lock held.
func (a *AgentPool) commit(next []types.Agent) notification {
	a.agents = next

	if err := storage.WriteValue(context.Background(), a.store, AgentsKey, a.agents); err != nil {
		xlog.Error("Failed to persist agents", "error", err)
	}

	a.seq++
	subs := make([]*subscriber, 0, len(a.subscribers))
	for _, s := range a.subscribers {
		subs = append(subs, s)
	}
	return notification{seq: a.seq, snapshot: types.CloneAgents(a.agents), subs: subs}
}

func (a *AgentPool) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range a.agents {
		if a.agents[i].ID == id {
			return i
		}
	}
	return -1
}
