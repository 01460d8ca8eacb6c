package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is used when a response carries no freshness information.
const DefaultTTL = 5 * time.Minute

// NewEntry builds an entry from a response received at now. The header is
// cloned so the entry never aliases the caller's response.
func NewEntry(status int, header http.Header, body []byte, ttl time.Duration, now time.Time) *Entry {
	hits := -1
	if n, err := strconv.Atoi(header.Get("CMR-Hits")); err == nil {
		hits = n
	}
	return &Entry{
		Body:     body,
		Status:   status,
		Header:   header.Clone(),
		Hits:     hits,
		Expires:  expiry(header, ttl, now),
		StoredAt: now,
	}
}

// expiry resolves when a response stops being fresh. Cache-Control wins over
// Expires; no-store and no-cache expire immediately; ttl is the fallback.
func expiry(header http.Header, ttl time.Duration, now time.Time) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if maxAge, ok := cacheControl(header.Get("Cache-Control")); ok {
		return now.Add(maxAge)
	}

	raw := header.Get("Expires")
	if raw == "" {
		return now.Add(ttl)
	}
	expires, err := http.ParseTime(raw)
	if err != nil {
		return now.Add(ttl)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// cacheControl extracts a freshness lifetime from a Cache-Control value.
func cacheControl(value string) (time.Duration, bool) {
	for _, directive := range strings.Split(value, ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store", directive == "no-cache":
			return 0, true
		case strings.HasPrefix(directive, "max-age="):
			secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
			if err != nil || secs < 0 {
				continue
			}
			return time.Duration(secs) * time.Second, true
		}
	}
	return 0, false
}
