package cache

import (
	"errors"
	"testing"

	"github.com/quantlayer/tradecache/pkg/types"
)

func key(instrument string, index int64) types.BucketKey {
	return types.BucketKey{InstrumentID: instrument, Index: index}
}

func TestLRUPolicy_VictimOrder(t *testing.T) {
	p := NewLRUPolicy()

	p.RecordInsert(key("BTC-USD", 0))
	p.RecordInsert(key("BTC-USD", 1))
	p.RecordInsert(key("BTC-USD", 2))

	victim, err := p.Victim()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victim != key("BTC-USD", 0) {
		t.Errorf("expected oldest insert as victim, got %v", victim)
	}

	// Touching the oldest key moves it out of victim position.
	p.Touch(key("BTC-USD", 0))

	victim, err = p.Victim()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victim != key("BTC-USD", 1) {
		t.Errorf("expected bucket 1 after touching bucket 0, got %v", victim)
	}
}

func TestLRUPolicy_FIFOAmongTies(t *testing.T) {
	p := NewLRUPolicy()

	// Insert without any touches: equal recency, first inserted evicts first.
	p.RecordInsert(key("ETH-USD", 10))
	p.RecordInsert(key("ETH-USD", 11))
	p.RecordInsert(key("ETH-USD", 12))

	want := []types.BucketKey{
		key("ETH-USD", 10),
		key("ETH-USD", 11),
		key("ETH-USD", 12),
	}
	for _, w := range want {
		victim, err := p.Victim()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if victim != w {
			t.Fatalf("expected victim %v, got %v", w, victim)
		}
		p.Remove(victim)
	}
}

func TestLRUPolicy_ReinsertResetsRecency(t *testing.T) {
	p := NewLRUPolicy()

	p.RecordInsert(key("BTC-USD", 0))
	p.RecordInsert(key("BTC-USD", 1))

	// Re-inserting bucket 0 treats it as a fresh access.
	p.RecordInsert(key("BTC-USD", 0))

	victim, err := p.Victim()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victim != key("BTC-USD", 1) {
		t.Errorf("expected bucket 1 as victim after re-insert of 0, got %v", victim)
	}

	if p.Len() != 2 {
		t.Errorf("re-insert must not grow the policy, len=%d", p.Len())
	}
}

func TestLRUPolicy_EmptyVictim(t *testing.T) {
	p := NewLRUPolicy()

	_, err := p.Victim()
	if !errors.Is(err, ErrEmptyPolicy) {
		t.Errorf("expected ErrEmptyPolicy, got %v", err)
	}
}

func TestLRUPolicy_RemoveUnknownKey(t *testing.T) {
	p := NewLRUPolicy()

	p.RecordInsert(key("BTC-USD", 0))
	p.Remove(key("BTC-USD", 99))

	if p.Len() != 1 {
		t.Errorf("removing an unknown key must be a no-op, len=%d", p.Len())
	}
}
