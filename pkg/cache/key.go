package cache

import (
	"net/url"
	"strings"
)

// keyPrefix namespaces every cache key.
const keyPrefix = "cmr"

// Key identifies a cached CMR response.
type Key struct {
	// Endpoint is the request path (e.g., "/search/collections")
	Endpoint string

	// Query are the query parameters
	Query url.Values

	// Accept is the requested result format
	Accept string

	// Principal partitions the cache per credential (a hash, never the token)
	Principal string
}

// String generates a deterministic cache key string.
// Format: cmr:endpoint:q=<url-encoded query>:accept=...:p=principal
//
// Example:
//
//	cmr:search/collections:q=page_size=10&provider=PODAAC:accept=application/json
func (k Key) String() string {
	parts := []string{keyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Encode sorts by key and escapes ":" and ",", so distinct queries never
	// share a key; repeated parameters keep their order
	if len(k.Query) > 0 {
		parts = append(parts, "q="+k.Query.Encode())
	}

	if k.Accept != "" {
		parts = append(parts, "accept="+k.Accept)
	}

	if k.Principal != "" {
		parts = append(parts, "p="+k.Principal)
	}

	return strings.Join(parts, ":")
}
