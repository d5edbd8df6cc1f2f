package types

import "time"

// Stats is a diagnostics snapshot. Nothing in the cache depends on it.
type Stats struct {
	// MemoryEntries counts memory tier entries, including stale ones not yet read.
	MemoryEntries int `json:"memoryEntries"`

	// PersistentEntries counts namespaced keys in the persistent tier, from a full enumeration.
	PersistentEntries int `json:"persistentEntries"`

	DefaultTTL time.Duration `json:"defaultTTL"`
}
