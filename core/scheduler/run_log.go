package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mudler/LocalPlanner/core/storage"
)

// RunsKey is the storage key of the execution history.
const RunsKey = "action_runs"

// MaxRuns bounds the retained execution history.
const MaxRuns = 1000

// RunLog keeps the execution history in a storage.Store, rewriting the
// whole list on every run.
type RunLog struct {
	store storage.Store
	mu    sync.RWMutex
	runs  []*TaskRun
}

func NewRunLog(ctx context.Context, store storage.Store) *RunLog {
	return &RunLog{
		store: store,
		runs:  storage.ReadOr(ctx, store, RunsKey, []*TaskRun{}),
	}
}

// LogRun records a task execution
func (l *RunLog) LogRun(ctx context.Context, run *TaskRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.runs = append(l.runs, run)
	if len(l.runs) > MaxRuns {
		l.runs = l.runs[len(l.runs)-MaxRuns:]
	}
	return storage.WriteValue(ctx, l.store, RunsKey, l.runs)
}

// CountSince returns how many actions ran for the agent at or after since.
func (l *RunLog) CountSince(agentID string, since time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, r := range l.runs {
		if r.AgentID == agentID && !r.RunAt.Before(since) {
			n++
		}
	}
	return n
}

// GetRuns retrieves the most recent executions of a task, newest first
func (l *RunLog) GetRuns(taskID string, limit int) []*TaskRun {
	l.mu.RLock()
	defer l.mu.RUnlock()

	runs := make([]*TaskRun, 0)
	for i := len(l.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		if l.runs[i].TaskID == taskID {
			r := *l.runs[i]
			runs = append(runs, &r)
		}
	}
	return runs
}
