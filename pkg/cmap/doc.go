// Package cmap provides a concurrent map implementation.
//
// This package implements a sharded concurrent map optimized for
// high-throughput per-key state with the following features:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Iteration: Safe iteration while holding read locks
//
// ingress.RateLimiter is the package's one consumer in this module: it
// keys a soft/hard token-bucket pair per remote IP, using GetOrSet to
// create a pair lazily on first sight of an IP and Range to sweep
// idle, fully-refilled entries out of the map.
//
// Usage:
//
//	m := cmap.New[string, *bucketPair]()
//	bp, existed := m.GetOrSet("203.0.113.7", newBucketPair())
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete) use Lock.
package cmap
