package storage

import (
	"context"
	"fmt"
	"sync"
)

var _ KV = (*MemoryKV)(nil)

// MemoryKV keeps values in process memory. It is meant for tests
// and for running without durable storage.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string]string{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	const op = "MemoryKV.Get"

	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}
