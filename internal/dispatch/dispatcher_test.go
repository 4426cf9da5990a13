package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/internal/cache"
	"github.com/quantlayer/tradecache/internal/prefetch"
	"github.com/quantlayer/tradecache/internal/source"
	"github.com/quantlayer/tradecache/internal/testutil"
	"github.com/quantlayer/tradecache/pkg/types"
)

const testWidth = time.Minute

func newTestDispatcher(t *testing.T, store source.Store, capacity int) *Dispatcher {
	t.Helper()

	idx, err := cache.NewIndex(capacity, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pred, err := prefetch.NewPredictor(&prefetch.PredictorConfig{
		RunThreshold:  3,
		HistoryLength: 8,
		Logger:        zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := New(&Config{
		Index:       idx,
		Store:       store,
		Predictor:   pred,
		Inflight:    cache.NewInflight(),
		BucketWidth: testWidth,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

func TestDispatcher_InvalidRange(t *testing.T) {
	d := newTestDispatcher(t, testutil.NewMockStore(), 4)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"start-equals-end", time.Unix(100, 0), time.Unix(100, 0)},
		{"start-after-end", time.Unix(200, 0), time.Unix(100, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Query(ctx, "BTC-USD", tt.start, tt.end)
			if !errors.Is(err, types.ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestDispatcher_InvalidRangeBeforeSource(t *testing.T) {
	store := testutil.NewMockStore()
	d := newTestDispatcher(t, store, 4)

	_, _ = d.Query(context.Background(), "BTC-USD", time.Unix(100, 0), time.Unix(50, 0))

	if store.FetchCount() != 0 {
		t.Error("invalid range must be rejected before any source interaction")
	}
}

func TestDispatcher_SingleBucketFetchesOnce(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 600, 10)...)

	d := newTestDispatcher(t, store, 4)
	ctx := context.Background()

	// [0, 30) lies inside bucket 0: exactly one fetch on first access.
	trades, err := d.Query(ctx, "BTC-USD", time.Unix(0, 0), time.Unix(30, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 3 {
		t.Errorf("expected 3 trades in [0, 30), got %d", len(trades))
	}
	if store.FetchCount() != 1 {
		t.Fatalf("expected exactly one fetch, got %d", store.FetchCount())
	}

	// The fetch must cover the bucket's full range, not just the query.
	call := store.FetchCalls()[0]
	if !call.Start.Equal(time.Unix(0, 0)) || !call.End.Equal(time.Unix(60, 0)) {
		t.Errorf("expected full bucket fetch [0, 60), got [%d, %d)", call.Start.Unix(), call.End.Unix())
	}

	// Repeat queries while resident: zero additional fetches.
	for range 5 {
		_, err = d.Query(ctx, "BTC-USD", time.Unix(0, 0), time.Unix(30, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.FetchCount() != 1 {
		t.Errorf("expected no refetch while resident, got %d fetches", store.FetchCount())
	}
}

func TestDispatcher_RoundTripAcrossBuckets(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 600, 5)...)

	d := newTestDispatcher(t, store, 16)

	// [45, 185) spans buckets 0..3 and cuts both edge buckets.
	start, end := time.Unix(45, 0), time.Unix(185, 0)
	trades, err := d.Query(context.Background(), "BTC-USD", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := (185 - 45) / 5
	if len(trades) != want {
		t.Errorf("expected %d trades, got %d", want, len(trades))
	}
	for i, tr := range trades {
		if tr.Timestamp.Before(start) || !tr.Timestamp.Before(end) {
			t.Errorf("trade %d at %d outside [45, 185)", i, tr.Timestamp.Unix())
		}
		if i > 0 && !trades[i-1].Before(tr) {
			t.Errorf("trades out of order at %d", i)
		}
	}
}

func TestDispatcher_SequenceTieBreakOrder(t *testing.T) {
	store := testutil.NewMockStore()
	ts := int64(30)
	store.AddTrades("BTC-USD",
		testutil.TradeAt("BTC-USD", ts, 7),
		testutil.TradeAt("BTC-USD", ts, 3),
		testutil.TradeAt("BTC-USD", ts, 5),
	)

	d := newTestDispatcher(t, store, 4)

	trades, err := d.Query(context.Background(), "BTC-USD", time.Unix(0, 0), time.Unix(60, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	for i, wantSeq := range []uint64{3, 5, 7} {
		if trades[i].Sequence != wantSeq {
			t.Errorf("position %d: expected sequence %d, got %d", i, wantSeq, trades[i].Sequence)
		}
	}
}

func TestDispatcher_EvictionScenario(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 600, 10)...)

	// capacity=2, width=60s.
	d := newTestDispatcher(t, store, 2)
	ctx := context.Background()

	mustQuery := func(startSec, endSec int64) {
		t.Helper()
		_, err := d.Query(ctx, "BTC-USD", time.Unix(startSec, 0), time.Unix(endSec, 0))
		if err != nil {
			t.Fatalf("query [%d, %d): %v", startSec, endSec, err)
		}
	}

	mustQuery(0, 30)    // fetch bucket 0
	mustQuery(60, 90)   // fetch bucket 1, resident {0, 1}
	mustQuery(120, 150) // fetch bucket 2, evict bucket 0, resident {1, 2}

	if got := store.FetchCountFor("BTC-USD", time.Unix(10, 0)); got != 1 {
		t.Fatalf("expected one fetch of bucket 0 so far, got %d", got)
	}

	// Bucket 0 was evicted: re-querying it must re-fetch.
	mustQuery(0, 30)

	if got := store.FetchCountFor("BTC-USD", time.Unix(10, 0)); got != 2 {
		t.Errorf("expected re-fetch of evicted bucket 0, got %d fetches", got)
	}
}

func TestDispatcher_DirectFetchErrorPropagates(t *testing.T) {
	store := testutil.NewMockStore()
	store.Err = types.ErrSourceUnavailable

	d := newTestDispatcher(t, store, 4)

	_, err := d.Query(context.Background(), "BTC-USD", time.Unix(0, 0), time.Unix(30, 0))
	if !errors.Is(err, types.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestDispatcher_UnknownInstrumentPropagates(t *testing.T) {
	d := newTestDispatcher(t, testutil.NewMockStore(), 4)

	_, err := d.Query(context.Background(), "NOPE-USD", time.Unix(0, 0), time.Unix(30, 0))
	if !errors.Is(err, types.ErrInstrumentNotFound) {
		t.Errorf("expected ErrInstrumentNotFound, got %v", err)
	}
}

func TestDispatcher_SequentialScanPrefetchesNextBucket(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 1200, 10)...)

	// No worker configured: predictions run inline before Query returns.
	d := newTestDispatcher(t, store, 16)
	ctx := context.Background()

	// Scan buckets 5, 6, 7.
	for _, b := range []int64{5, 6, 7} {
		_, err := d.Query(ctx, "BTC-USD", time.Unix(b*60, 0), time.Unix(b*60+30, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Bucket 8 must have been speculatively fetched already.
	if got := store.FetchCountFor("BTC-USD", time.Unix(8*60, 0)); got != 1 {
		t.Fatalf("expected prefetch of bucket 8, got %d fetches", got)
	}

	// Demanding bucket 8 now is a pure hit.
	before := store.FetchCount()
	_, err := d.Query(ctx, "BTC-USD", time.Unix(8*60, 0), time.Unix(8*60+30, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.FetchCountFor("BTC-USD", time.Unix(8*60, 0)); got != 1 {
		t.Errorf("prefetched bucket 8 must not be re-fetched, got %d", got)
	}

	// The scan continues, so the next bucket gets prefetched in turn.
	if store.FetchCount() != before+1 {
		t.Errorf("expected exactly one speculative fetch after the hit, got %d new", store.FetchCount()-before)
	}
}

func TestDispatcher_DispersedAccessNoPrefetch(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 3600, 10)...)

	d := newTestDispatcher(t, store, 16)
	ctx := context.Background()

	for _, b := range []int64{2, 9, 4, 31, 7} {
		_, err := d.Query(ctx, "BTC-USD", time.Unix(b*60, 0), time.Unix(b*60+30, 0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Exactly one fetch per demanded bucket, nothing speculative.
	if store.FetchCount() != 5 {
		t.Errorf("expected 5 demand fetches and no prefetch, got %d", store.FetchCount())
	}
}

func TestDispatcher_PrefetchFailureDoesNotFailQueries(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 180, 10)...)
	store.Bounded = true

	d := newTestDispatcher(t, store, 16)
	ctx := context.Background()

	// Scan to the end of the data; the speculative fetch of bucket 3 runs
	// past the domain and must be swallowed.
	for _, b := range []int64{0, 1, 2} {
		trades, err := d.Query(ctx, "BTC-USD", time.Unix(b*60, 0), time.Unix((b+1)*60, 0))
		if err != nil {
			t.Fatalf("query of bucket %d failed: %v", b, err)
		}
		if len(trades) != 6 {
			t.Errorf("bucket %d: expected 6 trades, got %d", b, len(trades))
		}
	}

	failedSpeculative := store.FetchCountFor("BTC-USD", time.Unix(3*60, 0))
	if failedSpeculative != 1 {
		t.Fatalf("expected one speculative attempt past the domain, got %d", failedSpeculative)
	}

	// The ascending direction is exhausted: scanning on triggers no more
	// wasted fetches past the end of data.
	_, err := d.Query(ctx, "BTC-USD", time.Unix(2*60, 0), time.Unix(2*60+30, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.FetchCountFor("BTC-USD", time.Unix(3*60, 0)); got != 1 {
		t.Errorf("exhausted direction must not refetch past the domain, got %d attempts", got)
	}
}

func TestDispatcher_QueryWiderThanCapacity(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddTrades("BTC-USD", testutil.TradesEvery("BTC-USD", 0, 600, 10)...)

	// Span of 10 buckets against capacity 2: the query may thrash its own
	// buckets but must still return the complete, ordered result.
	d := newTestDispatcher(t, store, 2)

	trades, err := d.Query(context.Background(), "BTC-USD", time.Unix(0, 0), time.Unix(600, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 60 {
		t.Errorf("expected 60 trades, got %d", len(trades))
	}
	for i := 1; i < len(trades); i++ {
		if !trades[i-1].Before(trades[i]) {
			t.Fatalf("trades out of order at %d", i)
		}
	}
}
