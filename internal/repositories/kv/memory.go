package kv

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps everything in a map. Used by tests and by the CLI when
// no DSN is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.data}.Get(ctx, key)
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.data}.Set(ctx, key, value)
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.data}.Delete(ctx, key)
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memView{m.data}.Clear(ctx)
}

// Atomic stages writes in a copy of the map and swaps it in only when fn
// succeeds.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := maps.Clone(m.data)
	if err := fn(ctx, memView{staged}); err != nil {
		return err
	}
	m.data = staged
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// memView operates on a map without locking; callers hold the lock.
type memView struct {
	data map[string][]byte
}

func (v memView) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := v.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (v memView) Set(_ context.Context, key string, value []byte) error {
	v.data[key] = append([]byte(nil), value...)
	return nil
}

func (v memView) Delete(_ context.Context, key string) error {
	delete(v.data, key)
	return nil
}

func (v memView) Clear(_ context.Context) error {
	clear(v.data)
	return nil
}
