package session

import "sync"

// MemoryStore is an in-process credential store for tools and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	value   string
	present bool
}

// NewMemoryStore returns a store holding token, or an empty one for "".
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{value: token, present: token != ""}
}

func (s *MemoryStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.present
}

func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	s.value, s.present = token, token != ""
	s.mu.Unlock()
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.value, s.present = "", false
	s.mu.Unlock()
}
