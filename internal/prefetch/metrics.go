package prefetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal tracks predictor decisions by direction.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecache_prefetch_predictions_total",
			Help: "Total number of predictor decisions",
		},
		[]string{"direction"},
	)

	// EnqueuedTotal tracks predictions accepted onto the work queue.
	EnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_prefetch_enqueued_total",
		Help: "Total number of prefetch requests enqueued",
	})

	// DroppedTotal tracks predictions dropped because the queue was full.
	DroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_prefetch_dropped_total",
		Help: "Total number of prefetch requests dropped on a full queue",
	})

	// FetchesTotal tracks speculative fetches by outcome.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecache_prefetch_fetches_total",
			Help: "Total number of speculative bucket fetches",
		},
		[]string{"result"},
	)
)
