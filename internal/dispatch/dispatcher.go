package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/internal/cache"
	"github.com/quantlayer/tradecache/internal/prefetch"
	"github.com/quantlayer/tradecache/internal/source"
	"github.com/quantlayer/tradecache/pkg/types"
)

// Prefetcher accepts speculative fetch requests. The prefetch worker pool
// implements it; a nil Prefetcher makes the dispatcher run predictions
// inline on the query path instead.
type Prefetcher interface {
	Enqueue(pred prefetch.Prediction) bool
}

// Dispatcher is the public query entry point. It computes the bucket span of
// a range query, resolves each bucket through the index (fetching on miss),
// merges bucket contents to the exact requested range, and feeds the access
// pattern to the predictor.
type Dispatcher struct {
	index       *cache.Index
	store       source.Store
	predictor   *prefetch.Predictor
	inflight    *cache.Inflight
	prefetcher  Prefetcher
	bucketWidth time.Duration
	logger      *zap.Logger
}

// Config holds dispatcher configuration.
type Config struct {
	Index       *cache.Index
	Store       source.Store
	Predictor   *prefetch.Predictor
	Inflight    *cache.Inflight
	Prefetcher  Prefetcher // optional; nil means inline prefetch
	BucketWidth time.Duration
	Logger      *zap.Logger
}

// New creates a dispatcher.
func New(cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BucketWidth <= 0 {
		return nil, fmt.Errorf("bucket width must be positive, got %v", cfg.BucketWidth)
	}
	if cfg.Index == nil || cfg.Store == nil || cfg.Predictor == nil || cfg.Inflight == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("index, store, predictor, inflight and logger are required")
	}

	return &Dispatcher{
		index:       cfg.Index,
		store:       cfg.Store,
		predictor:   cfg.Predictor,
		inflight:    cfg.Inflight,
		prefetcher:  cfg.Prefetcher,
		bucketWidth: cfg.BucketWidth,
		logger:      cfg.Logger,
	}, nil
}

// Query returns the trades for instrumentID with timestamps in [start, end),
// in (timestamp, sequence) order. A query that needs an unfetchable bucket
// fails whole; no partial result is returned.
//
// A query spanning more buckets than the cache capacity resolves in
// ascending order without protecting its own earlier buckets, so a single
// huge query can evict buckets it just loaded.
func (d *Dispatcher) Query(ctx context.Context, instrumentID string, start, end time.Time) ([]types.Trade, error) {
	if !start.Before(end) {
		QueriesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("query [%d, %d): %w", start.Unix(), end.Unix(), types.ErrInvalidRange)
	}

	timer := prometheus.NewTimer(QueryDuration)
	defer timer.ObserveDuration()

	queryID := uuid.New().String()
	first, last := types.BucketSpan(start, end, d.bucketWidth)

	d.logger.Debug("query-received",
		zap.String("query-id", queryID),
		zap.String("instrument-id", instrumentID),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int64("first-bucket", first),
		zap.Int64("last-bucket", last))

	indices := make([]int64, 0, last-first+1)
	var result []types.Trade

	for idx := first; idx <= last; idx++ {
		key := types.BucketKey{InstrumentID: instrumentID, Index: idx}

		bucket, err := d.resolveBucket(ctx, key)
		if err != nil {
			QueriesTotal.WithLabelValues("error").Inc()
			d.logger.Warn("query-failed",
				zap.String("query-id", queryID),
				zap.Int64("bucket-index", idx),
				zap.Error(err))
			return nil, err
		}

		indices = append(indices, idx)

		// Buckets may extend past the query's edges; trim to [start, end).
		// Buckets resolve in ascending order and trades are sorted within a
		// bucket, so the concatenation stays sorted.
		for _, tr := range bucket.Trades {
			if !tr.Timestamp.Before(start) && tr.Timestamp.Before(end) {
				result = append(result, tr)
			}
		}
	}

	QueriesTotal.WithLabelValues("ok").Inc()
	TradesReturned.Add(float64(len(result)))

	d.predictor.Observe(instrumentID, indices)
	d.speculate(ctx, instrumentID)

	return result, nil
}

// resolveBucket returns the resident bucket for key, fetching it from the
// source on miss. Concurrent fetches for the same key are deduplicated
// through the in-flight set shared with the prefetch workers.
func (d *Dispatcher) resolveBucket(ctx context.Context, key types.BucketKey) (*types.Bucket, error) {
	for {
		if bucket, ok := d.index.Get(key); ok {
			d.index.Touch(key)
			return bucket, nil
		}

		if d.inflight.TryAcquire(key) {
			break
		}
		// Another fetch for this key is in flight; wait for it and re-check
		// the index. If that fetch failed the bucket is still absent and we
		// take over.
		d.inflight.Wait(key)
	}
	defer d.inflight.Release(key)

	if bucket, ok := d.index.Get(key); ok {
		d.index.Touch(key)
		return bucket, nil
	}

	start := types.BucketStart(key.Index, d.bucketWidth)
	end := types.BucketEnd(key.Index, d.bucketWidth)

	trades, err := d.store.FetchRange(ctx, key.InstrumentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch bucket %d for %q: %w", key.Index, key.InstrumentID, err)
	}

	bucket := &types.Bucket{
		Key:    key,
		Start:  start,
		End:    end,
		Trades: trades,
	}
	d.index.Insert(key, bucket)

	return bucket, nil
}

// speculate asks the predictor for a prefetch decision and issues it, either
// to the worker pool or inline when none is configured. Speculative failures
// never reach the caller.
func (d *Dispatcher) speculate(ctx context.Context, instrumentID string) {
	pred, ok := d.predictor.Predict(instrumentID)
	if !ok {
		return
	}

	key := types.BucketKey{InstrumentID: pred.InstrumentID, Index: pred.Index}
	if d.index.Contains(key) {
		return
	}

	if d.prefetcher != nil {
		d.prefetcher.Enqueue(pred)
		return
	}

	d.prefetchInline(ctx, pred, key)
}

// prefetchInline performs the speculative fetch on the query path: the
// single-threaded mode where a prefetch completes before the next query
// begins.
func (d *Dispatcher) prefetchInline(ctx context.Context, pred prefetch.Prediction, key types.BucketKey) {
	if !d.inflight.TryAcquire(key) {
		return
	}
	defer d.inflight.Release(key)
	if d.index.Contains(key) {
		return
	}

	start := types.BucketStart(key.Index, d.bucketWidth)
	end := types.BucketEnd(key.Index, d.bucketWidth)

	trades, err := d.store.FetchRange(ctx, key.InstrumentID, start, end)
	if err != nil {
		if errors.Is(err, types.ErrInstrumentNotFound) {
			d.predictor.MarkExhausted(pred.InstrumentID, pred.Ascending)
		}
		d.logger.Debug("inline-prefetch-failed",
			zap.String("instrument-id", key.InstrumentID),
			zap.Int64("bucket-index", key.Index),
			zap.Error(err))
		return
	}

	d.index.Insert(key, &types.Bucket{
		Key:    key,
		Start:  start,
		End:    end,
		Trades: trades,
	})
}
