package cache

import (
	"sync"

	"github.com/quantlayer/tradecache/pkg/types"
)

// Inflight deduplicates concurrent fetches for the same bucket key. The
// dispatcher and the prefetch workers both acquire a key before calling the
// trade source, so a speculative fetch and a demand fetch for the same
// bucket never run at the same time.
type Inflight struct {
	mu      sync.Mutex
	pending map[types.BucketKey]chan struct{}
}

// NewInflight creates an empty in-flight set.
func NewInflight() *Inflight {
	return &Inflight{
		pending: make(map[types.BucketKey]chan struct{}),
	}
}

// TryAcquire registers key as in flight. It returns false if another fetch
// already holds the key.
func (f *Inflight) TryAcquire(key types.BucketKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.pending[key]; ok {
		return false
	}
	f.pending[key] = make(chan struct{})
	return true
}

// Release removes key from the in-flight set and wakes any waiters.
func (f *Inflight) Release(key types.BucketKey) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.pending[key]; ok {
		close(ch)
		delete(f.pending, key)
	}
}

// Wait blocks until the in-flight fetch for key (if any) releases.
func (f *Inflight) Wait(key types.BucketKey) {
	f.mu.Lock()
	ch, ok := f.pending[key]
	f.mu.Unlock()

	if ok {
		<-ch
	}
}
