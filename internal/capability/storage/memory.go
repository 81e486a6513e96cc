package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
)

// Memory is a process-local store. Values are kept as given.
type Memory struct {
	data sync.Map
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context, key string) (any, error) {
	v, ok := m.data.Load(key)
	if !ok {
		return nil, capability.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	m.data.Store(key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// ListKeys returns keys in sorted order
func (m *Memory) ListKeys(_ context.Context) ([]string, error) {
	keys := []string{}
	m.data.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys, nil
}
