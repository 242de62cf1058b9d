// Package uniq holds the fingerprint set that guarantees no two accepted
// combinations of a run are equal.
//
// Members are claimed with [Set.Insert], an atomic insert-if-absent: of any
// number of concurrent inserts of the same fingerprint, exactly one reports
// added. There is no separate membership check, so callers cannot race
// between "check" and "add". [Set.Remove] hands back a claim whose output
// was never written.
//
// Backends:
//   - [Memory]: process-local, the default for a single run.
//   - [Redis]: a Redis set shared by any number of processes.
//   - [SQLite]: a file that persists across runs, so a later run never
//     repeats an earlier run's outputs.
//
// [Scoped] wraps any backend with a member prefix to give each project its
// own namespace in a shared store.
package uniq

import (
	"context"
	"sync"
)

// Set is an insert-only set of fingerprints.
type Set interface {
	// Insert adds fp and reports whether it was absent. Backend failures are
	// returned as LOCK_ACQUISITION_FAILURE errors.
	Insert(ctx context.Context, fp string) (bool, error)

	// Remove deletes fp and reports whether it was present. It releases the
	// fingerprints of combinations that were accepted but never written.
	Remove(ctx context.Context, fp string) (bool, error)

	// Len returns the number of members visible through this set.
	Len(ctx context.Context) (int, error)

	// Close releases resources held by the set.
	Close() error
}

// Memory is a process-local [Set] guarded by one mutex.
type Memory struct {
	mu      sync.Mutex
	members map[string]struct{}
}

// NewMemory returns an empty in-memory set.
func NewMemory() *Memory {
	return &Memory{members: make(map[string]struct{})}
}

// Insert adds fp and reports whether it was absent.
func (m *Memory) Insert(ctx context.Context, fp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[fp]; ok {
		return false, nil
	}
	m.members[fp] = struct{}{}
	return true, nil
}

// Remove deletes fp and reports whether it was present.
func (m *Memory) Remove(ctx context.Context, fp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[fp]; !ok {
		return false, nil
	}
	delete(m.members, fp)
	return true, nil
}

// Len returns the number of members.
func (m *Memory) Len(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members), nil
}

// Close does nothing.
func (m *Memory) Close() error {
	return nil
}

// Ensure Memory implements Set.
var _ Set = (*Memory)(nil)
