package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps the counter in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreFrom starts from a known state, e.g. a count carried over from
// an earlier run of the same day.
func NewMemoryStoreFrom(state State) *MemoryStore {
	return &MemoryStore{state: state}
}

func (m *MemoryStore) Count(_ context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover(day)
	return m.state.RequestCount, nil
}

func (m *MemoryStore) Incr(_ context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover(day)
	m.state.RequestCount++
	return m.state.RequestCount, nil
}

// rollover must be called with mu held.
func (m *MemoryStore) rollover(day string) {
	if m.state.ResetDate != day {
		m.state = State{ResetDate: day}
	}
}

var _ Store = (*MemoryStore)(nil)
