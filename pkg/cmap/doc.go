// Package cmap provides a sharded concurrent map keyed by string.
//
// Keys are spread over a power-of-two number of shards by murmur3 hash,
// each guarded by its own RWMutex, so unrelated keys rarely contend.
//
// Usage:
//
//	m := cmap.NewWithShards[[]byte](32)
//	m.Set("key", value)
//	val, ok := m.Get("key")
//	n := m.Purge(func(k string, v []byte) bool { return len(v) == 0 })
//
// All operations are safe for concurrent use. Range and Purge visit one
// shard at a time, so they see a consistent view of each shard but not of
// the whole map.
package cmap
