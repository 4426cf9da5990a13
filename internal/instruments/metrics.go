package instruments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_instrument_metadata_hits_total",
		Help: "Total number of instrument metadata cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradecache_instrument_metadata_misses_total",
		Help: "Total number of instrument metadata cache misses",
	})
)
