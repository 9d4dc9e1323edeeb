package store

import (
	"context"
	"sync"
)

// memory implements LedgerStore without persistence; used by tests and for
// ephemeral runs with store.driver=memory.
type memory struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryStore creates an empty in-memory LedgerStore.
func NewMemoryStore() LedgerStore {
	return &memory{}
}

func (m *memory) Load(_ context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	if err := checkVersion(m.state.SchemaVersion); err != nil {
		return nil, err
	}
	return m.state.Clone(), nil
}

func (m *memory) Save(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
	m.state.SchemaVersion = SchemaVersion
	return nil
}

func (m *memory) Close() error { return nil }
