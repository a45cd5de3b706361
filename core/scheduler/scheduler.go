// Package scheduler is the auto-executor: on a cron schedule it runs the
// actions of due tasks for agents that opted into auto-execution.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"
)

// Scheduler polls the agent pool for due tasks
type Scheduler struct {
	agents   AgentSource
	runner   ActionRunner
	runs     *RunLog
	schedule string
	loc      *time.Location
	now      func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

type Option func(*Scheduler)

// WithSchedule overrides DefaultSchedule.
func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		s.schedule = spec
	}
}

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.loc = loc
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func WithRunner(r ActionRunner) Option {
	return func(s *Scheduler) {
		s.runner = r
	}
}

// NewScheduler validates the schedule up front so that misconfiguration
// surfaces at startup.
func NewScheduler(agents AgentSource, runs *RunLog, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		agents:   agents,
		runner:   ReminderRunner{},
		runs:     runs,
		schedule: DefaultSchedule,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	if _, err := ParseSchedule(s.schedule); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the scheduler's cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		xlog.Warn("Scheduler already started")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	ctx := s.ctx
	if _, err := c.AddFunc(s.schedule, func() { s.ProcessDue(ctx) }); err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule auto-executor: %w", err)
	}
	c.Start()
	s.cron = c

	xlog.Info("Auto-executor started", "schedule", s.schedule, "location", s.loc.String())
	return nil
}

// Stop cancels running actions and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.wg.Wait()
	xlog.Info("Auto-executor stopped")
}

// today is midnight of the current day in the scheduler's location.
func (s *Scheduler) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// ProcessDue runs one pass over every eligible agent and returns once all
// actions of the pass have been recorded.
func (s *Scheduler) ProcessDue(ctx context.Context) {
	today := s.today()

	for _, agent := range s.agents.List() {
		if !Eligible(agent) {
			continue
		}

		var due []types.Task
		for _, t := range agent.Tasks {
			if IsDue(t, today) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			continue
		}

		budget := DailyLimit(agent) - s.runs.CountSince(agent.ID, today)
		if budget <= 0 {
			xlog.Debug("Daily action limit reached", "agent", agent.ID, "limit", DailyLimit(agent))
			continue
		}
		if len(due) > budget {
			xlog.Debug("Deferring tasks past the daily limit", "agent", agent.ID, "deferred", len(due)-budget)
			due = due[:budget]
		}

		xlog.Debug("Processing due tasks", "agent", agent.ID, "count", len(due))
		s.wg.Add(1)
		go func(agent types.Agent, tasks []types.Task) {
			defer s.wg.Done()
			for _, t := range tasks {
				if ctx.Err() != nil {
					return
				}
				s.executeTask(ctx, agent, t)
			}
		}(agent, due)
	}

	s.wg.Wait()
}

// executeTask runs a single action and records its outcome on the task.
func (s *Scheduler) executeTask(ctx context.Context, agent types.Agent, task types.Task) {
	xlog.Info("Executing task action", "agent", agent.ID, "task", task.ID, "action", task.ActionType)

	startTime := time.Now()
	run := NewTaskRun(agent.ID, task.ID, s.now())

	result, err := s.runner.Run(ctx, agent, task)
	run.DurationMs = time.Since(startTime).Milliseconds()

	report := result.Message
	if err != nil {
		run.Status = "error"
		run.Error = err.Error()
		result = types.ActionResult{Success: false, Message: err.Error()}
		report = fmt.Sprintf("⚠️ I couldn't run the %s action for %q: %v", task.ActionType, task.Title, err)
		xlog.Error("Task action failed", "agent", agent.ID, "task", task.ID, "error", err)
	} else {
		run.Status = "success"
		run.Result = result.Message
	}

	if err := s.runs.LogRun(context.WithoutCancel(ctx), run); err != nil {
		xlog.Error("Failed to log task run", "task", task.ID, "error", err)
	}

	if !s.agents.RecordActionResult(agent.ID, task.ID, result, report) {
		xlog.Warn("Agent or task vanished before the result was recorded", "agent", agent.ID, "task", task.ID)
	}
}

// GetTaskRuns retrieves execution history for a task
func (s *Scheduler) GetTaskRuns(taskID string, limit int) []*TaskRun {
	return s.runs.GetRuns(taskID, limit)
}
