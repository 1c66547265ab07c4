package cache

import (
	"context"
	"sync"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

// Memory is a process-wide unique event memo.
type Memory struct {
	events sync.Map
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) HasUniqueEvent(_ context.Context, key domain.UniqueEventKey) (bool, error) {
	_, ok := m.events.Load(key)
	return ok, nil
}

func (m *Memory) SetUniqueEvent(_ context.Context, key domain.UniqueEventKey) error {
	m.events.LoadOrStore(key, struct{}{})
	return nil
}
