package workflow

import (
	"context"
	"sync"
)

// StatusStore is the injected status persistence abstraction. The memory
// backend serves tests and single-process deployments; redis and postgres
// back it durably in production.
type StatusStore interface {
	Put(ctx context.Context, status Status) error
	Get(ctx context.Context, id string) (Status, bool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Status, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryStore is a mutex-guarded in-memory StatusStore. Statuses live until
// process exit.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]Status)}
}

func (s *MemoryStore) Put(_ context.Context, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.ID] = status
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[id]
	return status, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, status)
	}
	return out, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
