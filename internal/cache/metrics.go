package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupsTotal tracks bucket index lookups by outcome.
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradecache_bucket_lookups_total",
			Help: "Total number of bucket index lookups",
		},
		[]string{"result"},
	)

	// InsertsTotal tracks bucket insertions.
	InsertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_bucket_inserts_total",
		Help: "Total number of bucket insertions",
	})

	// EvictionsTotal tracks LRU evictions.
	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_bucket_evictions_total",
		Help: "Total number of buckets evicted by the LRU policy",
	})

	// ResidentBuckets tracks the resident bucket count.
	ResidentBuckets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradecache_resident_buckets",
		Help: "Number of buckets currently resident in the index",
	})
)
