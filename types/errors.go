package types

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned by a PersistentTier write when the store is full.
	ErrQuotaExceeded = errors.New("persistent tier quota exceeded")

	// ErrCorruptRecord wraps any failure to decode a persisted record.
	ErrCorruptRecord = errors.New("corrupt cache record")
)

// StorageError is any persistent tier failure other than quota exhaustion.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("persistent tier %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistent tier %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
