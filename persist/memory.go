package persist

import (
	"context"
	"slices"
	"sync"

	"github.com/krisalay/tiered-cache/types"
)

// MemoryTier is a bounded, process-local PersistentTier.
// It behaves like a browser's localStorage: a byte quota over keys and values,
// with writes rejected once the quota would be exceeded.
type MemoryTier struct {
	sync.Mutex
	kvs      map[string]string
	maxBytes int64
	used     int64
}

var _ types.PersistentTier = (*MemoryTier)(nil)

// NewMemoryTier creates a MemoryTier. maxBytes <= 0 means unbounded.
func NewMemoryTier(maxBytes int64) *MemoryTier {
	return &MemoryTier{
		kvs:      make(map[string]string),
		maxBytes: maxBytes,
	}
}

func recordSize(key, value string) int64 {
	return int64(len(key) + len(value))
}

func (m *MemoryTier) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &types.StorageError{Op: "get", Key: key, Err: err}
	}
	m.Lock()
	defer m.Unlock()
	v, ok := m.kvs[key]
	return v, ok, nil
}

func (m *MemoryTier) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &types.StorageError{Op: "set", Key: key, Err: err}
	}
	m.Lock()
	defer m.Unlock()

	used := m.used + recordSize(key, value)
	if old, ok := m.kvs[key]; ok {
		used -= recordSize(key, old)
	}
	if m.maxBytes > 0 && used > m.maxBytes {
		return types.ErrQuotaExceeded
	}
	m.kvs[key] = value
	m.used = used
	return nil
}

func (m *MemoryTier) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &types.StorageError{Op: "remove", Key: key, Err: err}
	}
	m.Lock()
	defer m.Unlock()
	if old, ok := m.kvs[key]; ok {
		m.used -= recordSize(key, old)
		delete(m.kvs, key)
	}
	return nil
}

// Keys returns every stored key in sorted order.
func (m *MemoryTier) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.StorageError{Op: "keys", Err: err}
	}
	m.Lock()
	defer m.Unlock()
	keys := make([]string, 0, len(m.kvs))
	for k := range m.kvs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Used reports the bytes counted against the quota.
func (m *MemoryTier) Used() int64 {
	m.Lock()
	defer m.Unlock()
	return m.used
}

// Wipe removes every key, namespaced or not.
func (m *MemoryTier) Wipe() {
	m.Lock()
	defer m.Unlock()
	m.kvs = make(map[string]string)
	m.used = 0
}
