// Package cmap provides a concurrent-safe sharded map keyed by strings.
//
// Keys are distributed over a power-of-two number of shards using
// murmur3, each shard guarded by its own RWMutex. It backs the
// session-scoped storage backend, where most traffic is point lookups
// and the occasional prefix sweep.
//
// Usage:
//
//	m := cmap.New[[]byte]()
//	m.Set("k", []byte("v"))
//	v, ok := m.Get("k")
package cmap
