// Package cache provides the TTL cache used for instrument metadata. The
// bucket cache is not built on it: bucket eviction needs a deterministic LRU
// victim, which a TinyLFU cache cannot promise.
package cache

import "time"

// Cache is a best-effort TTL cache. Set may decline an entry.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. Returns false if the entry was not
	// admitted.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Close releases cache resources.
	Close()
}
