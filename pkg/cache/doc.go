// Package cache provides an optional Redis-backed response cache for CMR
// requests that are safe to repeat.
//
// Only plain GET requests are cached: provider listings and single page
// searches. Scroll requests carry server-side cursor state and are never
// cached; the client decides what is cacheable, this package only stores.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/search/collections",
//		Query:    url.Values{"provider": []string{"PODAAC"}},
//		Accept:   "application/vnd.nasa.cmr.umm_results+json",
//	}
//
//	entry, err := manager.Lookup(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from CMR, then
//		entry = cache.NewEntry(200, resp.Header, body, cache.DefaultTTL, time.Now())
//		_ = manager.Store(ctx, key, entry)
//	}
//
// # Expiry
//
// Freshness comes from Cache-Control (max-age, no-store, no-cache), then the
// Expires header, then the configured TTL. Redis drops keys on expiry; Lookup
// also treats a stale entry as a miss and evicts it. Flush empties the whole
// "cmr:" key space.
//
// # Metrics
//
//   - cmr_cache_hits_total - cache hits
//   - cmr_cache_misses_total{reason} - cache misses, absent or stale
//   - cmr_cache_stored_bytes_total - bytes written to the cache
//   - cmr_cache_evictions_total - entries removed by Evict and Flush
//   - cmr_cache_errors_total{operation} - cache operation errors
package cache
