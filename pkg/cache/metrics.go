package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cmr_cache_hits_total",
		Help: "Total number of CMR response cache hits",
	})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_cache_misses_total",
		Help: "Total number of CMR response cache misses",
	}, []string{"reason"}) // "absent", "stale"

	cacheStoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cmr_cache_stored_bytes_total",
		Help: "Bytes written to the CMR response cache",
	})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cmr_cache_evictions_total",
		Help: "Entries removed from the CMR response cache by Evict or Flush",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // "lookup", "store", "evict", "flush"
)
