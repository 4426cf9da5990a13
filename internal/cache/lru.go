package cache

import (
	"container/list"
	"errors"

	"github.com/quantlayer/tradecache/pkg/types"
)

// ErrEmptyPolicy is returned by Victim when no keys are tracked. The bucket
// index treats it as an invariant violation: capacity can only be exceeded
// when at least one entry is tracked.
var ErrEmptyPolicy = errors.New("eviction policy tracks no keys")

// LRUPolicy maintains a recency ordering over bucket keys and selects
// eviction victims. It tracks keys only; bucket contents are owned by the
// Index. Touch, Victim and Remove are all O(1). The policy is not safe for
// concurrent use on its own; the Index serializes access.
type LRUPolicy struct {
	order *list.List // front = most recent, back = least recent
	elems map[types.BucketKey]*list.Element
}

// NewLRUPolicy creates an empty policy.
func NewLRUPolicy() *LRUPolicy {
	return &LRUPolicy{
		order: list.New(),
		elems: make(map[types.BucketKey]*list.Element),
	}
}

// Touch marks key as most-recently-used. Unknown keys are ignored.
func (p *LRUPolicy) Touch(key types.BucketKey) {
	if el, ok := p.elems[key]; ok {
		p.order.MoveToFront(el)
	}
}

// RecordInsert registers a freshly inserted key as most-recently-used.
// Re-inserting a tracked key has the same effect as Touch. Keys inserted
// later sit ahead of earlier inserts, so ties among never-touched entries
// evict first-inserted-first.
func (p *LRUPolicy) RecordInsert(key types.BucketKey) {
	if el, ok := p.elems[key]; ok {
		p.order.MoveToFront(el)
		return
	}
	p.elems[key] = p.order.PushFront(key)
}

// Victim returns the least-recently-used key.
func (p *LRUPolicy) Victim() (types.BucketKey, error) {
	back := p.order.Back()
	if back == nil {
		return types.BucketKey{}, ErrEmptyPolicy
	}
	return back.Value.(types.BucketKey), nil
}

// Remove drops bookkeeping for an evicted key. Unknown keys are ignored.
func (p *LRUPolicy) Remove(key types.BucketKey) {
	if el, ok := p.elems[key]; ok {
		p.order.Remove(el)
		delete(p.elems, key)
	}
}

// Len returns the number of tracked keys.
func (p *LRUPolicy) Len() int {
	return len(p.elems)
}
