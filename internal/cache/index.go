package cache

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/pkg/types"
)

// Index is the resident bucket set. It maps bucket keys to materialized
// buckets and enforces the capacity bound by consulting the LRU policy once
// per over-capacity insert. A single mutex guards both the map and the
// policy so the dispatcher and the prefetch workers can share one Index.
type Index struct {
	mu       sync.Mutex
	entries  map[types.BucketKey]*types.Bucket
	policy   *LRUPolicy
	capacity int
	logger   *zap.Logger
}

// NewIndex creates a bucket index holding at most capacity buckets.
func NewIndex(capacity int, logger *zap.Logger) (*Index, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Index{
		entries:  make(map[types.BucketKey]*types.Bucket, capacity),
		policy:   NewLRUPolicy(),
		capacity: capacity,
		logger:   logger,
	}, nil
}

// Get returns the resident bucket for key, if any. Get is a pure lookup and
// does not touch recency; the dispatcher calls Touch explicitly on its hit
// path so that speculative residency checks leave the LRU order alone.
func (i *Index) Get(key types.BucketKey) (*types.Bucket, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	b, ok := i.entries[key]
	if ok {
		LookupsTotal.WithLabelValues("hit").Inc()
	} else {
		LookupsTotal.WithLabelValues("miss").Inc()
	}
	return b, ok
}

// Contains reports whether key is resident without touching recency.
func (i *Index) Contains(key types.BucketKey) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, ok := i.entries[key]
	return ok
}

// Touch marks key as most-recently-used.
func (i *Index) Touch(key types.BucketKey) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.policy.Touch(key)
}

// Insert adds bucket under key, replacing any resident bucket for the same
// key and resetting its recency to most-recent. If the insert pushes the
// resident count past capacity, the LRU victim is evicted. This is the only
// path by which entries leave the index.
func (i *Index) Insert(key types.BucketKey, bucket *types.Bucket) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries[key] = bucket
	i.policy.RecordInsert(key)
	InsertsTotal.Inc()

	if len(i.entries) > i.capacity {
		victim, err := i.policy.Victim()
		if err != nil {
			// Capacity exceeded with nothing tracked: the index and policy
			// are out of sync, which is a logic error, not a runtime state.
			panic(fmt.Sprintf("bucket index over capacity with empty eviction policy: %v", err))
		}

		delete(i.entries, victim)
		i.policy.Remove(victim)
		EvictionsTotal.Inc()

		i.logger.Debug("bucket-evicted",
			zap.String("instrument-id", victim.InstrumentID),
			zap.Int64("bucket-index", victim.Index))
	}

	ResidentBuckets.Set(float64(len(i.entries)))
}

// Len returns the resident bucket count.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return len(i.entries)
}
