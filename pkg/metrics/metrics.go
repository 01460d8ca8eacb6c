// Package metrics exposes the Prometheus registry used by the CMR client.
// Metrics are defined in their respective packages (client, cache, pagination)
// to keep the packages independent; this package documents them and serves them.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the CMR client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the metrics registered in Registry.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric the client packages register.
var Names = []string{
	// pkg/client
	"cmr_requests_total",
	"cmr_request_duration_seconds",
	"cmr_errors_total",

	// pkg/cache
	"cmr_cache_hits_total",
	"cmr_cache_misses_total",
	"cmr_cache_stored_bytes_total",
	"cmr_cache_evictions_total",
	"cmr_cache_errors_total",

	// pkg/pagination
	"cmr_search_pages_total",
	"cmr_search_items_total",
	"cmr_search_budget_exceeded_total",
	"cmr_scroll_clears_total",
	"cmr_page_overshoot_records",
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Registered returns the cmr_* metric families currently known to the gatherer.
// Vector metrics only appear once a label combination has been observed.
func Registered() ([]string, error) {
	families, err := Gatherer.Gather()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "cmr_") {
			names = append(names, mf.GetName())
		}
	}
	return names, nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - cmr_requests_total{endpoint, status} (Counter): Requests by path and HTTP status ("cached", "network_error")
//   - cmr_request_duration_seconds{endpoint} (Histogram): Request duration by path
//   - cmr_errors_total{class} (Counter): Errors by class (client, server, network, unknown)
//
// Cache Metrics (pkg/cache):
//   - cmr_cache_hits_total (Counter): Cache hits
//   - cmr_cache_misses_total{reason} (Counter): Cache misses (absent, stale)
//   - cmr_cache_stored_bytes_total (Counter): Bytes written to the cache
//   - cmr_cache_evictions_total (Counter): Entries removed by Evict and Flush
//   - cmr_cache_errors_total{operation} (Counter): Cache operation errors
//
// Search Metrics (pkg/pagination):
//   - cmr_search_pages_total{endpoint} (Counter): Pages fetched
//   - cmr_search_items_total{endpoint} (Counter): Records received after filtering
//   - cmr_search_budget_exceeded_total{endpoint} (Counter): Searches cut short by the time budget
//   - cmr_scroll_clears_total{result} (Counter): Scroll releases (ok, error)
//   - cmr_page_overshoot_records (Histogram): Records planned beyond the limit
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(cmr_cache_hits_total[5m])) /
//   (sum(rate(cmr_cache_hits_total[5m])) + sum(rate(cmr_cache_misses_total[5m])))
//
//   # Searches returning partial results
//   rate(cmr_search_budget_exceeded_total[5m])
//
//   # Leaked scrolls
//   rate(cmr_scroll_clears_total{result="error"}[1h])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(cmr_request_duration_seconds_bucket[5m]))
