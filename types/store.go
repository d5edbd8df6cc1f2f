package types

import "context"

/*
PersistentTier is the contract between the cache and its durable store.

The cache never assumes exclusive access: other code (or a later process)
may read and write the same keys. Implementations must be safe for
concurrent use.
*/
type PersistentTier interface {

	// Get returns the stored value. A missing key is ("", false, nil), not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	/*
		Set stores value under key, overwriting any previous value.

		FAILURES:
		---------
		- ErrQuotaExceeded when the store is out of capacity
		- *StorageError for anything else
	*/
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys enumerates every key currently stored, namespaced or not.
	Keys(ctx context.Context) ([]string, error)
}
