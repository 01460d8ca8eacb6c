package cache

import (
	"net/http"
	"time"
)

// Entry is a stored CMR response: one search page or a provider listing.
type Entry struct {
	Body   []byte      `json:"body"`
	Status int         `json:"status"`
	Header http.Header `json:"header"`

	// Hits is the CMR-Hits header of the cached page, -1 when absent
	Hits int `json:"hits"`

	Expires  time.Time `json:"expires"`
	StoredAt time.Time `json:"stored_at"`
}

// Stale reports whether the entry is expired at now.
func (e *Entry) Stale(now time.Time) bool {
	return !now.Before(e.Expires)
}

// Remaining returns how long the entry stays fresh after now, never negative.
func (e *Entry) Remaining(now time.Time) time.Duration {
	if e.Stale(now) {
		return 0
	}
	return e.Expires.Sub(now)
}
