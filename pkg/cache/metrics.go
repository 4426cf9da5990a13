package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_metadata_cache_hits_total",
		Help: "Total number of metadata cache hits",
	})

	MissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_metadata_cache_misses_total",
		Help: "Total number of metadata cache misses",
	})

	SetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_metadata_cache_sets_total",
		Help: "Total number of metadata cache sets",
	})
)
