package client

import (
	"net/http"
	"net/url"
	"strings"
)

// CMR header names.
const (
	HeaderAuthorization = "Authorization"
	HeaderClientID      = "Client-Id"
	HeaderRequestID     = "X-Request-Id"
	HeaderScrollID      = "CMR-Scroll-Id"
	HeaderHits          = "CMR-Hits"
	HeaderTook          = "CMR-Took"
)

// Host returns the CMR root URL for an environment. "sit" and "uat" select the
// test systems, an empty string or "prod" selects production. A trailing dot,
// as accepted by older tooling, is ignored.
func Host(env string) string {
	env = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(env)), ".")
	if env == "" || env == "prod" {
		return "https://cmr.earthdata.nasa.gov"
	}
	return "https://cmr." + env + ".earthdata.nasa.gov"
}

// Root returns the base URL requests are sent to: BaseURL when set, otherwise
// the host selected by Env.
func (c Config) Root() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return Host(c.Env)
}

// SearchURL builds a search API URL for endpoint ("collections", "granules", ...).
func (c Config) SearchURL(endpoint string, query url.Values) string {
	u := c.Root() + "/search/" + strings.Trim(endpoint, "/")
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// ClearScrollURL is the endpoint releasing a scroll cursor.
func (c Config) ClearScrollURL() string {
	return c.Root() + "/search/clear-scroll"
}

// IngestURL builds an ingest API URL, used for the provider listing.
func (c Config) IngestURL(endpoint string) string {
	return c.Root() + "/ingest/" + strings.Trim(endpoint, "/")
}

// StandardHeaders builds the headers sent with every search request. The
// returned header is always a new value; scrollID is added only when non-empty.
func StandardHeaders(cfg Config, scrollID string) http.Header {
	h := http.Header{}
	if cfg.Authorization != "" {
		h.Set(HeaderAuthorization, cfg.Authorization)
	}
	if cfg.RequestID != "" {
		h.Set(HeaderRequestID, cfg.RequestID)
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	h.Set(HeaderClientID, clientID)
	if scrollID != "" {
		h.Set(HeaderScrollID, scrollID)
	}
	return h
}
