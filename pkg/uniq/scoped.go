package uniq

import (
	"context"
	"sync/atomic"
)

// ScopedSet wraps a Set with a member prefix so that several projects can
// share one backend without their fingerprints colliding.
//
// Example usage:
//
//	shared := uniq.NewMemory()
//	apes := uniq.Scoped(shared, "apes:")
//	cats := uniq.Scoped(shared, "cats:")
type ScopedSet struct {
	inner  Set
	prefix string
	added  atomic.Int64
}

// Scoped returns a set that prefixes every member with prefix.
// Closing a scoped set does not close inner.
func Scoped(inner Set, prefix string) *ScopedSet {
	if inner == nil {
		inner = NewMemory()
	}
	return &ScopedSet{inner: inner, prefix: prefix}
}

// Insert adds prefix+fp to the inner set.
func (s *ScopedSet) Insert(ctx context.Context, fp string) (bool, error) {
	added, err := s.inner.Insert(ctx, s.prefix+fp)
	if added {
		s.added.Add(1)
	}
	return added, err
}

// Remove deletes prefix+fp from the inner set.
func (s *ScopedSet) Remove(ctx context.Context, fp string) (bool, error) {
	removed, err := s.inner.Remove(ctx, s.prefix+fp)
	if removed {
		s.added.Add(-1)
	}
	return removed, err
}

// Len returns the number of members this scope added and did not remove.
func (s *ScopedSet) Len(ctx context.Context) (int, error) {
	return int(s.added.Load()), nil
}

// Close does nothing; the inner set is owned by the caller.
func (s *ScopedSet) Close() error {
	return nil
}

// Prefix returns the member prefix.
func (s *ScopedSet) Prefix() string {
	return s.prefix
}

// Ensure ScopedSet implements Set.
var _ Set = (*ScopedSet)(nil)
