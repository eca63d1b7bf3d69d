// Package mirror provides the synchronization core: delta computation,
// destination schema reconciliation, delta application, and the scheduler
// that drives recurring sync passes.
package mirror

import (
	"sort"
	"sync"

	"github.com/dbsmedya/accmirror/internal/types"
)

// SnapshotStore holds the previous known snapshot of every table, keyed by
// source table name. It is owned by the orchestrator and injected where
// needed. Access is mutex-protected; the run lock additionally guarantees
// that no two passes interleave their read-modify-write of one entry.
type SnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]types.Snapshot
}

// NewSnapshotStore creates an empty store. An empty baseline means the next
// pass treats every source row as new.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]types.Snapshot),
	}
}

// Get returns the stored snapshot for a table and whether one exists.
func (s *SnapshotStore) Get(table string) (types.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[table]
	return snap, ok
}

// Put replaces the stored snapshot for a table wholesale.
func (s *SnapshotStore) Put(table string, snapshot types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[table] = snapshot
}

// Clear discards all stored snapshots. Called when the scheduler stops so
// the next start begins from an empty baseline.
func (s *SnapshotStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = make(map[string]types.Snapshot)
}

// Tables returns the names of all tables with a stored snapshot, sorted.
func (s *SnapshotStore) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
