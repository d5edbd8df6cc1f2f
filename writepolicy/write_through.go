package writepolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/krisalay/tiered-cache/types"
)

/*
This file implements the "write-through" policy.

Whenever the cache writes data, it immediately writes the same record to
the persistent tier, so a restarted process can restore it.

So the flow is: memory write → persistent write (synchronous)
*/

/*
WriteThroughPolicy forwards every write to the persistent tier.

When the tier reports types.ErrQuotaExceeded it runs the recovery hook
once and retries the write exactly once. There is no other retry.
*/
type WriteThroughPolicy struct {

	// store is the persistent tier records must land in.
	store types.PersistentTier

	// onQuota runs between the failed write and the retry. May be nil.
	onQuota RecoverFunc
}

/*
NewWriteThroughPolicy creates a new write-through policy.
*/
func NewWriteThroughPolicy(store types.PersistentTier, onQuota RecoverFunc) *WriteThroughPolicy {
	return &WriteThroughPolicy{store: store, onQuota: onQuota}
}

func (w *WriteThroughPolicy) Write(ctx context.Context, key, record string) error {
	err := w.store.Set(ctx, key, record)
	if err == nil || !errors.Is(err, types.ErrQuotaExceeded) || w.onQuota == nil {
		return err
	}

	w.onQuota(ctx)

	if err := w.store.Set(ctx, key, record); err != nil {
		return fmt.Errorf("retry after quota recovery: %w", err)
	}
	return nil
}
