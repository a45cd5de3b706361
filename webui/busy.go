package webui

import "sync"

// busyFlags rejects a second request of the same kind while one is in
// flight: one plan generation at a time, one chat reply per agent.
type busyFlags struct {
	mu         sync.Mutex
	generating bool
	thinking   map[string]bool
}

func newBusyFlags() *busyFlags {
	return &busyFlags{thinking: make(map[string]bool)}
}

func (b *busyFlags) tryGenerate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.generating {
		return false
	}
	b.generating = true
	return true
}

func (b *busyFlags) doneGenerate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generating = false
}

func (b *busyFlags) isGenerating() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generating
}

func (b *busyFlags) tryThink(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.thinking[id] {
		return false
	}
	b.thinking[id] = true
	return true
}

func (b *busyFlags) doneThink(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.thinking, id)
}

func (b *busyFlags) isThinking(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.thinking[id]
}
