// Package cache implements the disk-backed audio artifact cache: a persisted
// key-to-artifact index with a size ceiling, age expiration, deterministic
// eviction, and orphan/stale maintenance sweeps.
package cache
