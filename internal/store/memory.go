package store

import (
	"context"
	"sync"
)

// Memory keeps snapshots for the lifetime of the process.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string]*Snapshot)}
}

func (m *Memory) Save(_ context.Context, snapshot *Snapshot) error {
	if err := checkSnapshot(snapshot); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.Session] = snapshot
	return nil
}

func (m *Memory) Load(_ context.Context, session string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.snapshots[session]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot, nil
}
