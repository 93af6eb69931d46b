package ledger

import "sync"

// Store persists the ledger of record. Save must be atomic: after a crash,
// Load returns either the previous state or the saved one, never a mix.
type Store interface {
	// Save persists the full ledger state.
	Save(*State) error

	// Load returns the persisted state, or nil if nothing was saved yet.
	Load() (*State, error)

	// Close releases the store.
	Close() error
}

// MemStore is an in-memory Store for tests and throwaway ledgers.
type MemStore struct {
	mu    sync.Mutex
	state *State
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Save persists a deep copy of the state.
func (s *MemStore) Save(st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st.Clone()
	return nil
}

// Load returns a deep copy of the saved state, or nil if none.
func (s *MemStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }
