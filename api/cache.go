package cache

import (
	"context"
	"time"

	"github.com/krisalay/tiered-cache/types"
)

/*
Cache defines the PUBLIC API of the two-tier cache.
Consumers depend on this interface and receive a concrete instance built
once at startup, which keeps tests free to build isolated caches over fake
persistent tiers.

No method returns an error. A failing persistent tier degrades the cache to
memory-only; it never fails the caller's own operation.
*/
type Cache[V any] interface {

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. Memory tier holds a valid entry:
		   - Return it (hit)

		2. Memory tier holds a stale entry:
		   - Drop it and continue with step 3

		3. Persistent tier holds a valid record:
		   - Copy it back into the memory tier
		   - Return it (hit)

		4. Persistent tier holds a stale record:
		   - Remove it, miss

		Missing, unreadable and corrupt records are all misses.
	*/
	Get(ctx context.Context, key string) (V, bool)

	/*
		Set stores a value with the default TTL (5 minutes unless configured).

		BEHAVIOR:
		---------
		- Stores the value in memory (always succeeds)
		- Writes the record through to the persistent tier
		- On quota exhaustion: sweeps stale records and retries once
	*/
	Set(ctx context.Context, key string, value V)

	/*
		SetWithTTL stores a value with an explicit time-to-live.

		A non-positive ttl falls back to the default TTL. It does NOT store
		an entry that is stale on arrival; use Invalidate to drop a key.
	*/
	SetWithTTL(ctx context.Context, key string, value V, ttl time.Duration)

	/*
		Invalidate removes a key from both tiers.

		This operation is idempotent:
		- Invalidating a non-existing key is safe
	*/
	Invalidate(ctx context.Context, key string)

	/*
		Clear empties the memory tier and removes every namespaced key from
		the persistent tier. Keys outside the namespace are left alone.
		Best effort, not transactional.
	*/
	Clear(ctx context.Context)

	/*
		IsValid reports whether Get would currently return a value.

		It follows the same lookup order as Get but never changes either tier.
	*/
	IsValid(ctx context.Context, key string) bool

	/*
		Stats returns entry counts for both tiers and the default TTL.
		The persistent count enumerates the tier on every call.
	*/
	Stats(ctx context.Context) types.Stats
}
