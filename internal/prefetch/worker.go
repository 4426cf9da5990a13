package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/internal/cache"
	"github.com/quantlayer/tradecache/internal/source"
	"github.com/quantlayer/tradecache/pkg/types"
)

// Worker executes speculative fetches on a fixed goroutine pool behind a
// bounded queue, decoupled from the dispatcher's demand path. A full queue
// drops the prediction: prefetching is best-effort and must never apply
// backpressure to queries. All fetch failures are swallowed and logged.
type Worker struct {
	queue       chan Prediction
	index       *cache.Index
	store       source.Store
	inflight    *cache.Inflight
	predictor   *Predictor
	bucketWidth time.Duration
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	size   int
}

// WorkerConfig holds prefetch worker configuration.
type WorkerConfig struct {
	Workers     int
	QueueSize   int
	BucketWidth time.Duration
	Index       *cache.Index
	Store       source.Store
	Inflight    *cache.Inflight
	Predictor   *Predictor
	Logger      *zap.Logger
}

// NewWorker creates a prefetch worker pool.
func NewWorker(cfg *WorkerConfig) (*Worker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.Workers)
	}
	if cfg.QueueSize <= 0 {
		return nil, fmt.Errorf("queue size must be positive, got %d", cfg.QueueSize)
	}
	if cfg.BucketWidth <= 0 {
		return nil, fmt.Errorf("bucket width must be positive, got %v", cfg.BucketWidth)
	}
	if cfg.Index == nil || cfg.Store == nil || cfg.Inflight == nil || cfg.Predictor == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("index, store, inflight, predictor and logger are required")
	}

	return &Worker{
		queue:       make(chan Prediction, cfg.QueueSize),
		index:       cfg.Index,
		store:       cfg.Store,
		inflight:    cfg.Inflight,
		predictor:   cfg.Predictor,
		bucketWidth: cfg.BucketWidth,
		logger:      cfg.Logger,
		size:        cfg.Workers,
	}, nil
}

// Start launches the worker goroutines.
func (w *Worker) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.logger.Info("prefetch-workers-starting",
		zap.Int("workers", w.size),
		zap.Int("queue-size", cap(w.queue)))

	for range w.size {
		w.wg.Add(1)
		go w.run()
	}
}

// Stop drains the workers and blocks until they exit.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("prefetch-workers-stopped")
}

// Enqueue hands a prediction to the pool. It never blocks; when the queue is
// full the prediction is dropped and counted.
func (w *Worker) Enqueue(pred Prediction) bool {
	select {
	case w.queue <- pred:
		EnqueuedTotal.Inc()
		return true
	default:
		DroppedTotal.Inc()
		w.logger.Debug("prefetch-queue-full",
			zap.String("instrument-id", pred.InstrumentID),
			zap.Int64("bucket-index", pred.Index))
		return false
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case pred := <-w.queue:
			w.fetch(pred)
		}
	}
}

// fetch performs one speculative bucket fetch through the same insert path
// as a demand miss. Errors never propagate past this method.
func (w *Worker) fetch(pred Prediction) {
	key := types.BucketKey{InstrumentID: pred.InstrumentID, Index: pred.Index}

	// Re-check under current state: the bucket may have become resident or
	// in flight between prediction and execution.
	if w.index.Contains(key) {
		return
	}
	if !w.inflight.TryAcquire(key) {
		return
	}
	defer w.inflight.Release(key)
	if w.index.Contains(key) {
		return
	}

	start := types.BucketStart(key.Index, w.bucketWidth)
	end := types.BucketEnd(key.Index, w.bucketWidth)

	trades, err := w.store.FetchRange(w.ctx, key.InstrumentID, start, end)
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		if errors.Is(err, types.ErrInstrumentNotFound) {
			w.predictor.MarkExhausted(pred.InstrumentID, pred.Ascending)
		}
		w.logger.Debug("prefetch-fetch-failed",
			zap.String("instrument-id", key.InstrumentID),
			zap.Int64("bucket-index", key.Index),
			zap.Error(err))
		return
	}

	w.index.Insert(key, &types.Bucket{
		Key:    key,
		Start:  start,
		End:    end,
		Trades: trades,
	})
	FetchesTotal.WithLabelValues("ok").Inc()

	w.logger.Debug("bucket-prefetched",
		zap.String("instrument-id", key.InstrumentID),
		zap.Int64("bucket-index", key.Index),
		zap.Int("trades", len(trades)))
}
