package types

import "time"

// Stamp carries the timing metadata every entry needs to decide validity.
type Stamp struct {
	CreatedAt time.Time
	TTL       time.Duration
}

// CacheEntry is one cached value. Entries are replaced, never mutated,
// once they are visible to readers.
type CacheEntry[V any] struct {
	Key   string
	Value V
	Stamp
}

// NewCacheEntry builds an entry created at now.
func NewCacheEntry[V any](key string, value V, ttl time.Duration, now time.Time) *CacheEntry[V] {
	return &CacheEntry[V]{
		Key:   key,
		Value: value,
		Stamp: Stamp{CreatedAt: now, TTL: ttl},
	}
}
