package expiration

import (
	"time"

	"github.com/krisalay/tiered-cache/types"
)

/*
ExpireAfterWrite is a fixed TTL measured from creation. Reads never extend it.

An entry is valid while now - CreatedAt < TTL. The boundary itself is stale,
and so is an entry with no creation time or a non-positive TTL.
*/
type ExpireAfterWrite struct{}

func (ExpireAfterWrite) IsExpired(s types.Stamp, now time.Time) bool {
	if s.CreatedAt.IsZero() || s.TTL <= 0 {
		return true
	}
	return now.Sub(s.CreatedAt) >= s.TTL
}
