package memtier

import (
	"sync"
	"sync/atomic"

	"github.com/krisalay/tiered-cache/types"
)

/*
This file defines the memory tier: a key → entry map that lives as long as
the process. There is no capacity bound and no background sweep. The cache
drops stale entries when it reads them.

- Reads should be very fast
- Reads should NOT require locks
- Writes are less frequent and can afford extra work

To achieve this, we use a technique called: "Copy-On-Write" (COW)
*/

type entries[V any] map[string]*types.CacheEntry[V]

/*
Store is the memory tier.

- Readers always see an immutable snapshot
- Writers copy the map under mu and atomically publish the copy
*/
type Store[V any] struct {
	// mu serializes writers. Readers never take it.
	mu sync.Mutex

	data atomic.Pointer[entries[V]]

	// gen moves on every caller-driven write: Put, unconditional Delete, Clear.
	// PutIf publishes only while it is unchanged.
	gen atomic.Uint64
}

func NewStore[V any]() *Store[V] {
	s := &Store[V]{}
	empty := make(entries[V])
	s.data.Store(&empty)
	return s
}

// Get retrieves an entry. Validity is the caller's business.
func (s *Store[V]) Get(key string) (*types.CacheEntry[V], bool) {
	ent, ok := (*s.data.Load())[key]
	return ent, ok
}

// Generation returns the current write generation. Capture it before reading
// the value you intend to publish with PutIf.
func (s *Store[V]) Generation() uint64 {
	return s.gen.Load()
}

// Put inserts or replaces an entry.
func (s *Store[V]) Put(key string, ent *types.CacheEntry[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.Add(1)
	s.put(key, ent)
}

/*
PutIf inserts ent only if no Put, unconditional Delete or Clear happened
since gen was captured. It reports whether ent was published.

It does not move the generation itself, so concurrent PutIf calls for
different keys do not cancel each other.
*/
func (s *Store[V]) PutIf(key string, ent *types.CacheEntry[V], gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen.Load() != gen {
		return false
	}
	s.put(key, ent)
	return true
}

func (s *Store[V]) put(key string, ent *types.CacheEntry[V]) {
	old := *s.data.Load()
	n := make(entries[V], len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent
	s.data.Store(&n)
}

/*
Delete removes key. It is a no-op if the key is absent.

When expect is non-nil the key is only removed if it still maps to expect,
so a reader dropping a stale entry never deletes a fresh one written
concurrently. Only an unconditional delete (expect == nil) moves the
generation, and it does so even when the key is absent.
*/
func (s *Store[V]) Delete(key string, expect *types.CacheEntry[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expect == nil {
		s.gen.Add(1)
	}

	old := *s.data.Load()
	cur, ok := old[key]
	if !ok || (expect != nil && cur != expect) {
		return
	}

	n := make(entries[V], len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}
	s.data.Store(&n)
}

// Clear drops every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.Add(1)
	empty := make(entries[V])
	s.data.Store(&empty)
}

// Len counts entries, stale ones included.
func (s *Store[V]) Len() int {
	return len(*s.data.Load())
}
