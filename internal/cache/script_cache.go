// Package cache memoizes results keyed by script identity and canonical
// pick sequence; cmd/pickcheck's cachedParse uses it to skip repeated
// Domain.Parse round-trip checks. The dispatcher does not consult it, and
// it is unrelated to a script's Cachable option. It is a single in-memory
// tier: pickcheck has no
// cross-process persistence requirement, so unlike graft's own disk-backed
// hierarchical cache, there is no L2 tier here.
package cache

import (
	"sync"

	pclog "github.com/pickcheck/pickcheck/log"
)

// Key identifies one memoized result: a script's stable ID plus the exact
// sequence of replies it was driven with.
type Key struct {
	ScriptID uint64
	Replies  string // replies, binary-encoded; see EncodeReplies
}

// EncodeReplies turns a reply sequence into a comparable map key. Replies
// are int32; a simple fixed-width big-endian encoding keeps distinct
// sequences from colliding without needing a hash collision argument.
func EncodeReplies(replies []int32) string {
	buf := make([]byte, 4*len(replies))
	for i, r := range replies {
		u := uint32(r)
		buf[4*i] = byte(u >> 24)
		buf[4*i+1] = byte(u >> 16)
		buf[4*i+2] = byte(u >> 8)
		buf[4*i+3] = byte(u)
	}
	return string(buf)
}

// ScriptCache is a bounded, sharded concurrent map from Key to a built
// value, sharded by ScriptID to keep lock contention local to one script
// at a time under the worker pool's parallel batch runs.
type ScriptCache struct {
	shards    []shard
	mask      uint64
	capacity  int // per-shard entry cap; 0 means unbounded
	hits      uint64
	misses    uint64
	statsLock sync.Mutex
}

type shard struct {
	mu      sync.RWMutex
	entries map[Key]interface{}
	order   []Key // insertion order, for capacity-bound eviction
}

// NewScriptCache returns a cache with shardCount shards (rounded up to a
// power of two), each holding up to perShardCapacity entries (0 = unbounded).
func NewScriptCache(shardCount, perShardCapacity int) *ScriptCache {
	n := 1
	for n < shardCount {
		n <<= 1
	}
	if n == 0 {
		n = 1
	}
	shards := make([]shard, n)
	for i := range shards {
		shards[i].entries = make(map[Key]interface{})
	}
	return &ScriptCache{shards: shards, mask: uint64(n - 1), capacity: perShardCapacity}
}

func (c *ScriptCache) shardFor(k Key) *shard {
	return &c.shards[k.ScriptID&c.mask]
}

// Get returns the cached value for k, if any.
func (c *ScriptCache) Get(k Key) (interface{}, bool) {
	s := c.shardFor(k)
	s.mu.RLock()
	v, ok := s.entries[k]
	s.mu.RUnlock()
	c.statsLock.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.statsLock.Unlock()
	return v, ok
}

// Set stores val under k, evicting the oldest entry in its shard if the
// shard is at capacity.
func (c *ScriptCache) Set(k Key, val interface{}) {
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[k]; !exists {
		if c.capacity > 0 && len(s.entries) >= c.capacity {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.entries, oldest)
			pclog.TRACE("script cache evicted entry for script %d", oldest.ScriptID)
		}
		s.order = append(s.order, k)
	}
	s.entries[k] = val
}

// Stats reports cumulative hit/miss counts across every shard.
func (c *ScriptCache) Stats() (hits, misses uint64) {
	c.statsLock.Lock()
	defer c.statsLock.Unlock()
	return c.hits, c.misses
}

// Clear empties every shard, used between independent batch runs that
// should not see each other's cached values.
func (c *ScriptCache) Clear() {
	for i := range c.shards {
		c.shards[i].mu.Lock()
		c.shards[i].entries = make(map[Key]interface{})
		c.shards[i].order = nil
		c.shards[i].mu.Unlock()
	}
	c.statsLock.Lock()
	c.hits, c.misses = 0, 0
	c.statsLock.Unlock()
}
