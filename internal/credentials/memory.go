package credentials

import "sync"

// MemStore is an in-memory Store, used by tests in place of the file store.
type MemStore struct {
	mu  sync.Mutex
	rec Record
	set bool
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Record{}, nil
	}
	return s.rec, nil
}

func (s *MemStore) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	s.set = true
	return nil
}

func (s *MemStore) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = Record{}
	s.set = false
	return nil
}
