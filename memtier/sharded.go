package memtier

import (
	"hash/fnv"

	"github.com/krisalay/tiered-cache/types"
)

/*
Sharded splits the memory tier into independent Stores.

A copy-on-write Store copies its whole map on every write, so one big map
makes writes O(n). Spreading keys over shards keeps each copy small and
lets writers to different shards proceed in parallel.
*/
type Sharded[V any] struct {
	shards []*Store[V]
}

// DefaultShards is used when NewSharded is given a non-positive count.
const DefaultShards = 16

func NewSharded[V any](n int) *Sharded[V] {
	if n <= 0 {
		n = DefaultShards
	}
	s := &Sharded[V]{shards: make([]*Store[V], n)}
	for i := range s.shards {
		s.shards[i] = NewStore[V]()
	}
	return s
}

// hash converts a key into a number. FNV is fast and non-cryptographic.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// shardFor picks the shard that owns key.
func (s *Sharded[V]) shardFor(key string) *Store[V] {
	return s.shards[hash(key)%uint32(len(s.shards))]
}

func (s *Sharded[V]) Get(key string) (*types.CacheEntry[V], bool) {
	return s.shardFor(key).Get(key)
}

func (s *Sharded[V]) Put(key string, ent *types.CacheEntry[V]) {
	s.shardFor(key).Put(key, ent)
}

// Generation returns the generation of the shard that owns key.
func (s *Sharded[V]) Generation(key string) uint64 {
	return s.shardFor(key).Generation()
}

// PutIf publishes ent if the owning shard is still at gen. See Store.PutIf.
func (s *Sharded[V]) PutIf(key string, ent *types.CacheEntry[V], gen uint64) bool {
	return s.shardFor(key).PutIf(key, ent, gen)
}

// Delete has the same expect semantics as Store.Delete.
func (s *Sharded[V]) Delete(key string, expect *types.CacheEntry[V]) {
	s.shardFor(key).Delete(key, expect)
}

// Clear empties every shard. A concurrent Put may land in a shard already cleared.
func (s *Sharded[V]) Clear() {
	for _, sh := range s.shards {
		sh.Clear()
	}
}

func (s *Sharded[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}
