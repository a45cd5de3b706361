package state

import (
	"time"

	"github.com/mudler/LocalPlanner/core/types"
	"github.com/mudler/xlog"
)

// Delete flags the agent for its exit animation and removes it once the
// delete delay elapses. Deleting again restarts the delay.
func (a *AgentPool) Delete(id string) bool {
	a.Lock()
	if a.closed || a.index(id) < 0 {
		a.Unlock()
		return false
	}

	if p, ok := a.pending[id]; ok {
		p.timer.Stop()
	}

	i := a.index(id)
	next := make([]types.Agent, len(a.agents))
	copy(next, a.agents)
	flagged := next[i].Clone()
	flagged.IsDeleting = true
	next[i] = flagged

	p := &pendingDelete{}
	a.pending[id] = p
	p.timer = time.AfterFunc(a.deleteDelay, func() { a.finishDelete(id, p) })

	n := a.commit(next)
	a.Unlock()
	n.deliver()
	return true
}

// PendingDeletes reports how many removals are still scheduled.
func (a *AgentPool) PendingDeletes() int {
	a.Lock()
	defer a.Unlock()
	return len(a.pending)
}

// finishDelete is a no-op when the pool was closed, the delete was
// rescheduled or the agent is already gone.
func (a *AgentPool) finishDelete(id string, p *pendingDelete) {
	a.Lock()
	if a.closed || a.pending[id] != p {
		a.Unlock()
		return
	}
	delete(a.pending, id)

	i := a.index(id)
	if i < 0 {
		a.Unlock()
		return
	}

	next := make([]types.Agent, 0, len(a.agents)-1)
	next = append(next, a.agents[:i]...)
	next = append(next, a.agents[i+1:]...)
	if a.selected == id {
		a.selected = ""
	}

	n := a.commit(next)
	a.Unlock()
	n.deliver()
	xlog.Info("Agent removed", "id", id)
}

// Close cancels every scheduled removal. Agents flagged for deletion stay
// flagged in the store.
func (a *AgentPool) Close() {
	a.Lock()
	defer a.Unlock()
	a.closed = true
	for id, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, id)
	}
}
