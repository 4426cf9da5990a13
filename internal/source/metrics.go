package source

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal tracks range fetches against the trade source by outcome.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecache_source_fetches_total",
			Help: "Total number of range fetches against the trade source",
		},
		[]string{"result"},
	)

	// TradesFetched tracks the number of trades returned by the source.
	TradesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_source_trades_fetched_total",
		Help: "Total number of trades returned by the trade source",
	})

	// FetchDuration tracks source fetch latency.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradecache_source_fetch_duration_seconds",
		Help:    "Latency of trade source range fetches",
		Buckets: prometheus.DefBuckets,
	})
)
