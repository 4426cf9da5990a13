package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal tracks dispatched queries by outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecache_queries_total",
			Help: "Total number of range queries dispatched",
		},
		[]string{"result"},
	)

	// QueryDuration tracks end-to-end query latency, including any demand
	// fetches against the trade source.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradecache_query_duration_seconds",
		Help:    "End-to-end latency of range queries",
		Buckets: prometheus.DefBuckets,
	})

	// TradesReturned tracks the number of trades returned to callers.
	TradesReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_trades_returned_total",
		Help: "Total number of trades returned to query callers",
	})
)
