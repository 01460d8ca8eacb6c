// Package client provides the CMR HTTP transport: request building, response
// normalisation, optional response caching and request metrics.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cmr-client/pkg/cache"
	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for CMR client operations.
var (
	cmrRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_requests_total",
		Help: "Total CMR requests by endpoint and status",
	}, []string{"endpoint", "status"})

	cmrRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cmr_request_duration_seconds",
		Help:    "CMR request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	cmrErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_errors_total",
		Help: "Total CMR errors by class",
	}, []string{"class"})
)

// Defaults for Config.
const (
	DefaultClientID = "cmr-go-client"
	DefaultAccept   = "application/vnd.nasa.cmr.umm_results+json"
	DefaultMaxTime  = 5 * time.Minute
	DefaultTimeout  = 5 * time.Second
)

// Config holds the client configuration. It is always passed by value; the
// client never hands out references to caller-owned maps.
type Config struct {
	// Env selects the CMR deployment: "", "prod", "sit" or "uat"
	Env string

	// BaseURL overrides the host derived from Env (e.g. a proxy or test server)
	BaseURL string

	// Authorization is copied verbatim into the Authorization header
	Authorization string

	// RequestID is copied into the X-Request-Id header
	RequestID string

	// ClientID identifies the application, defaults to DefaultClientID
	ClientID string

	// Accept is the result MIME type requested from CMR
	Accept string

	// MaxTime is the total server time budget for one paginated search
	MaxTime time.Duration

	// Timeout applies to each individual HTTP request
	Timeout time.Duration

	// Redis enables the response cache for cacheable GET requests (optional)
	Redis *redis.Client

	// CacheTTL is used when a cached response carries no Expires header
	CacheTTL time.Duration
}

// DefaultConfig returns a configuration for the production environment.
func DefaultConfig() Config {
	return Config{
		ClientID: DefaultClientID,
		Accept:   DefaultAccept,
		MaxTime:  DefaultMaxTime,
		Timeout:  DefaultTimeout,
		CacheTTL: cache.DefaultTTL,
	}
}

// WithDefaults returns a copy of c with every unset option defaulted.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ClientID == "" {
		c.ClientID = d.ClientID
	}
	if c.Accept == "" {
		c.Accept = d.Accept
	}
	if c.MaxTime <= 0 {
		c.MaxTime = d.MaxTime
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	return c
}

// Validate checks the options that cannot be defaulted.
func (c Config) Validate() error {
	switch strings.TrimSuffix(strings.ToLower(c.Env), ".") {
	case "", "prod", "sit", "uat":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEnv, c.Env)
	}
	if c.MaxTime < 0 {
		return fmt.Errorf("max_time must be >= 0 (got %s)", c.MaxTime)
	}
	return nil
}

// Client is the CMR HTTP transport.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new CMR client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	logger := logging.WithRequestID(logging.NewLogger(logging.ComponentClient), cfg.RequestID)

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis, cache.WithLogger(logger))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cacheManager,
		config: cfg,
		logger: logger,
	}, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Get performs a GET request. Headers are copied onto the request, never retained.
func (c *Client) Get(ctx context.Context, rawURL, accept string, headers http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setHeaders(req, accept, headers)
	return c.Do(req)
}

// Post performs a POST request with the given body.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, accept string, headers http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setHeaders(req, accept, headers)
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.Do(req)
}

func setHeaders(req *http.Request, accept string, headers http.Header) {
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
}

// Do executes a request and normalises the response. A non-nil error means no
// HTTP response was received; HTTP error statuses are reported in the Response.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		cmrRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var cacheKey cache.Key
	cacheable := c.cacheable(req)
	if cacheable {
		cacheKey = cache.Key{
			Endpoint:  endpoint,
			Query:     req.URL.Query(),
			Accept:    req.Header.Get("Accept"),
			Principal: principal(req.Header.Get(HeaderAuthorization)),
		}
		entry, err := c.cache.Lookup(ctx, cacheKey)
		switch {
		case err == nil:
			c.logger.Debug().Str("endpoint", endpoint).Int("hits", entry.Hits).Msg("Serving response from cache")
			cmrRequestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return newResponse(entry.Status, entry.Header, entry.Body), nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing CMR request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		cmrErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		cmrRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, fmt.Errorf("%s %s: %w", req.Method, endpoint, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		cmrErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	cmrRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(httpResp.StatusCode)).Inc()
	resp := newResponse(httpResp.StatusCode, httpResp.Header, body)

	if class := classifyStatus(httpResp.StatusCode); class != "" {
		cmrErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", httpResp.StatusCode).
			Str("error_class", string(class)).
			Msg("CMR request error")
	} else if resp.IsRaw() {
		cmrErrorsTotal.WithLabelValues(string(ErrorClassUnknown)).Inc()
	}

	if cacheable && httpResp.StatusCode == http.StatusOK && !resp.IsRaw() {
		entry := cache.NewEntry(httpResp.StatusCode, httpResp.Header, body, c.config.CacheTTL, time.Now())
		if err := c.cache.Store(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", time.Until(entry.Expires)).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// cacheable reports whether a request may be served from the cache. Scroll
// requests are stateful on the server and always bypass it.
func (c *Client) cacheable(req *http.Request) bool {
	if c.cache == nil || req.Method != http.MethodGet {
		return false
	}
	if req.Header.Get(HeaderScrollID) != "" {
		return false
	}
	return req.URL.Query().Get("scroll") != "true"
}

// principal derives a stable, non-reversible cache partition from a credential.
func principal(authorization string) string {
	if authorization == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(authorization))
	return hex.EncodeToString(sum[:6])
}

// Close releases resources held by the client. The redis client is owned by
// the caller and is not closed.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
