package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	api "github.com/krisalay/tiered-cache/api"
	"github.com/krisalay/tiered-cache/engine"
	"github.com/krisalay/tiered-cache/memtier"
	"github.com/krisalay/tiered-cache/persist"
	"github.com/krisalay/tiered-cache/types"
	"github.com/krisalay/tiered-cache/writepolicy"
)

/*
TieredCache is the main cache implementation.
This struct is the orchestrator that connects:
- the memory tier (fast, lost on restart)
- the persistent tier (slower, durable, bounded)
- expiration, metrics and diagnostics (the engine)
- the write policy that pushes records to the persistent tier

Callers only ever talk to TieredCache. No method returns an error: every
persistent tier failure is reported through the engine and swallowed.
*/
type TieredCache[V any] struct {
	// mem is owned exclusively by this cache.
	mem *memtier.Sharded[V]

	// tier is shared; other code may touch the same keys.
	tier types.PersistentTier

	// engine contains the "rules" of the cache: validity, clock, default TTL, metrics, logging.
	engine *engine.CacheEngine

	// writer persists records and runs quota recovery.
	writer writepolicy.WritePolicy

	// prefix namespaces this cache's keys inside the persistent tier.
	prefix string

	// sf collapses concurrent restores of the same key into one persistent tier read.
	sf singleflight.Group
}

var _ api.Cache[any] = (*TieredCache[any])(nil)

/*
New creates a TieredCache over tier.

A nil tier gets a private unbounded persist.MemoryTier, which makes the
cache effectively memory-only.
*/
func New[V any](tier types.PersistentTier, opts ...Option) *TieredCache[V] {
	o := newOptions(opts)
	if tier == nil {
		tier = persist.NewMemoryTier(0)
	}

	c := &TieredCache[V]{
		mem:    memtier.NewSharded[V](o.shards),
		tier:   tier,
		engine: engine.NewCacheEngine(o.expiration, o.metrics, o.logger, o.timefunc, o.defaultTTL),
		prefix: o.prefix,
	}
	c.writer = writepolicy.NewWriteThroughPolicy(tier, c.recoverQuota)
	return c
}

/*
Get retrieves a value, memory tier first.
*/
func (c *TieredCache[V]) Get(ctx context.Context, key string) (V, bool) {
	if ent, ok := c.mem.Get(key); ok {
		if c.engine.IsValid(ent.Stamp) {
			c.engine.Metrics.Hit()
			return ent.Value, true
		}

		// Stale in memory. The persistent tier is still consulted.
		c.engine.Metrics.Expire()
		c.mem.Delete(key, ent)
	}

	// Callers share the restore, so one caller cancelling must not fail the rest.
	v, _, _ := c.sf.Do(key, func() (any, error) {
		return c.restore(context.WithoutCancel(ctx), key), nil
	})

	if ent, _ := v.(*types.CacheEntry[V]); ent != nil {
		c.engine.Metrics.Hit()
		return ent.Value, true
	}

	c.engine.Metrics.Miss()
	var zero V
	return zero, false
}

/*
restore reads key from the persistent tier and, if still valid, warms the
memory tier with it.

The memory generation is captured before the read. If a Set, Invalidate or
Clear touched the shard meanwhile, the record read may already be gone or
superseded, so it is not published and the current memory entry wins.
*/
func (c *TieredCache[V]) restore(ctx context.Context, key string) *types.CacheEntry[V] {
	nsKey := c.prefix + key
	gen := c.mem.Generation(key)

	raw, ok, err := c.tier.Get(ctx, nsKey)
	if err != nil {
		c.engine.Report("get", key, err)
		return nil
	}
	if !ok {
		return nil
	}

	ent, err := types.DecodeRecord[V](key, raw)
	if err != nil {
		// Left in place; the quota sweep or Clear will remove it.
		c.engine.Report("decode", key, err)
		return nil
	}

	if !c.engine.IsValid(ent.Stamp) {
		c.engine.Metrics.Expire()
		if err := c.tier.Remove(ctx, nsKey); err != nil {
			c.engine.Report("remove", key, err)
		}
		return nil
	}

	if !c.mem.PutIf(key, ent, gen) {
		if cur, ok := c.mem.Get(key); ok && c.engine.IsValid(cur.Stamp) {
			return cur
		}
		return nil
	}
	c.engine.Metrics.Restore()
	return ent
}

/*
Set stores a value with the default TTL.
*/
func (c *TieredCache[V]) Set(ctx context.Context, key string, value V) {
	c.SetWithTTL(ctx, key, value, 0)
}

/*
SetWithTTL stores a value with an explicit TTL.
*/
func (c *TieredCache[V]) SetWithTTL(ctx context.Context, key string, value V, ttl time.Duration) {
	ent := types.NewCacheEntry(key, value, c.engine.TTLFor(ttl), c.engine.Now())

	// Memory is authoritative for this process whatever happens next.
	c.mem.Put(key, ent)

	raw, err := types.EncodeRecord(ent)
	if err != nil {
		c.engine.Report("encode", key, err)
		return
	}

	if err := c.writer.Write(ctx, c.prefix+key, raw); err != nil {
		c.engine.Report("set", key, err)
	}
}

/*
Invalidate deletes a key from both tiers.

The persistent record goes first and memory last: a restore that read the
record before the removal sees the generation move and does not publish it.
*/
func (c *TieredCache[V]) Invalidate(ctx context.Context, key string) {
	if err := c.tier.Remove(ctx, c.prefix+key); err != nil {
		c.engine.Report("remove", key, err)
	}

	c.mem.Delete(key, nil)
	c.sf.Forget(key)
}

/*
Clear empties the memory tier and removes every namespaced persistent key.
Memory is cleared last, whatever the persistent tier does, for the same
reason as in Invalidate.
*/
func (c *TieredCache[V]) Clear(ctx context.Context) {
	defer c.mem.Clear()

	keys, err := c.namespacedKeys(ctx)
	if err != nil {
		c.engine.Report("keys", "", err)
		return
	}

	var errs error
	for _, k := range keys {
		errs = multierr.Append(errs, c.tier.Remove(ctx, k))
	}
	if errs != nil {
		c.engine.Report("clear", "", errs)
	}
}

/*
IsValid reports whether Get would return a value right now, without
touching either tier.
*/
func (c *TieredCache[V]) IsValid(ctx context.Context, key string) bool {
	if ent, ok := c.mem.Get(key); ok && c.engine.IsValid(ent.Stamp) {
		return true
	}

	raw, ok, err := c.tier.Get(ctx, c.prefix+key)
	if err != nil {
		c.engine.Report("get", key, err)
		return false
	}
	if !ok {
		return false
	}

	ent, err := types.DecodeRecord[V](key, raw)
	if err != nil {
		return false
	}
	return c.engine.IsValid(ent.Stamp)
}

/*
Stats returns entry counts for both tiers and the default TTL.
*/
func (c *TieredCache[V]) Stats(ctx context.Context) types.Stats {
	stats := types.Stats{
		MemoryEntries: c.mem.Len(),
		DefaultTTL:    c.engine.DefaultTTL,
	}

	keys, err := c.namespacedKeys(ctx)
	if err != nil {
		c.engine.Report("keys", "", err)
		return stats
	}
	stats.PersistentEntries = len(keys)
	return stats
}

/*
recoverQuota is the quota-recovery sweep. It runs only when a persistent
write fails with types.ErrQuotaExceeded, never on a timer.

Every namespaced record that is stale or cannot be decoded is removed.
Records are judged by their stamp alone, so a record written with a
different value type is still kept while it is valid.
*/
func (c *TieredCache[V]) recoverQuota(ctx context.Context) {
	keys, err := c.namespacedKeys(ctx)
	if err != nil {
		c.engine.Report("sweep", "", err)
		return
	}

	var stale []string
	for _, k := range keys {
		raw, ok, err := c.tier.Get(ctx, k)
		if err != nil {
			c.engine.Report("sweep", k, err)
			continue
		}
		if !ok {
			continue
		}
		stamp, err := types.DecodeStamp(k, raw)
		if err != nil || !c.engine.IsValid(stamp) {
			stale = append(stale, k)
		}
	}

	removed := 0
	var errs error
	for _, k := range stale {
		if err := c.tier.Remove(ctx, k); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
	}
	if errs != nil {
		c.engine.Report("sweep", "", errs)
	}
	c.engine.ReportRecovery(removed)
}

func (c *TieredCache[V]) namespacedKeys(ctx context.Context) ([]string, error) {
	all, err := c.tier.Keys(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, c.prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
