package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process KV for tests and ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string

	// FailSet, when set, makes every Set return this error. Used by tests
	// to exercise write-failure handling.
	FailSet error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if m.FailSet != nil {
		return m.FailSet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
