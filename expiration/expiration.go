// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/tiered-cache/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.

Strategies must be pure: the answer depends only on the stamp and the time
passed in, so validity can be re-checked on every read.
*/
type Strategy interface {

	// IsExpired checks if an entry with this stamp is stale at now.
	IsExpired(types.Stamp, time.Time) bool
}
