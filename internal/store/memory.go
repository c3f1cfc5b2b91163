package store

import (
	"context"
	"sync"

	"github.com/evn/versiongate/internal/appversion"
)

// MemoryStore is a process-local store for tests and single-process
// deployments. Snapshots do not survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]appversion.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]appversion.Snapshot)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*appversion.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[key]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, snap appversion.Snapshot) error {
	m.mu.Lock()
	m.snapshots[key] = snap
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
