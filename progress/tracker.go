package progress

import (
	"sync"
	"sync/atomic"
)

// Observer receives item and batch updates. Implementations are called from worker goroutines
// and must be safe for concurrent use.
type Observer interface {
	ItemChanged(State)
	BatchChanged(BatchProgress)
}

// Discard is an Observer that ignores everything.
type Discard struct{}

func (Discard) ItemChanged(State)          {}
func (Discard) BatchChanged(BatchProgress) {}

// Tracker holds the current state of every item. Once an item reaches a terminal state its entry is frozen.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]State
}

// Set records s as the current state of its item. It returns false when the item was already terminal.
func (t *Tracker) Set(s State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.states == nil {
		t.states = make(map[string]State)
	}

	if prev, ok := t.states[s.ItemID()]; ok && IsTerminal(prev) {
		return false
	}

	t.states[s.ItemID()] = s
	return true
}

// Reset forgets every item.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.states = nil
}

// Get returns the current state of id.
func (t *Tracker) Get(id string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[id]
	return s, ok
}

// Snapshot copies the current states.
func (t *Tracker) Snapshot() map[string]State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]State, len(t.states))
	for k, v := range t.states {
		out[k] = v
	}
	return out
}

// BatchProgress is emitted after each item of a batch reaches a terminal state.
type BatchProgress struct {
	BatchID   string `json:"batch_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Batch counts terminal items. Completed is the only field written by several workers.
type Batch struct {
	ID    string
	Total int

	completed atomic.Int64
}

// NewBatch returns a batch of total items.
func NewBatch(id string, total int) *Batch {
	return &Batch{ID: id, Total: total}
}

// Complete counts one more terminal item and returns the resulting progress.
func (b *Batch) Complete() BatchProgress {
	n := b.completed.Add(1)
	return BatchProgress{BatchID: b.ID, Completed: int(n), Total: b.Total}
}

// Completed returns the number of terminal items so far.
func (b *Batch) Completed() int {
	return int(b.completed.Load())
}
