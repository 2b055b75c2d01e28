package storage

import (
	"context"
	"sync"
)

// MemoryStore is a KeyValueStore that lives only as long as the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// MemoryEventRepository keeps persisted events in memory.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []GameEvent
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{}
}

func (r *MemoryEventRepository) Append(ctx context.Context, event GameEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *MemoryEventRepository) GetBySession(ctx context.Context, sessionID string) ([]GameEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []GameEvent
	for _, e := range r.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryEventRepository) GetByEventType(ctx context.Context, eventType string) ([]GameEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []GameEvent
	for _, e := range r.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	_ KeyValueStore   = (*MemoryStore)(nil)
	_ EventRepository = (*MemoryEventRepository)(nil)
)
