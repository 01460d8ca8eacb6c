package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/cmr-client/pkg/client"
	"github.com/Sternrassler/cmr-client/pkg/filter"
	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for paginated searches.
var (
	searchPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_search_pages_total",
		Help: "Total search pages fetched by endpoint",
	}, []string{"endpoint"})

	searchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_search_items_total",
		Help: "Total records received by endpoint, after filtering",
	}, []string{"endpoint"})

	searchBudgetExceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_search_budget_exceeded_total",
		Help: "Searches stopped early because the time budget was exceeded",
	}, []string{"endpoint"})

	scrollClearsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmr_scroll_clears_total",
		Help: "Scroll release calls by result",
	}, []string{"result"})

	pageOvershootRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cmr_page_overshoot_records",
		Help:    "Records planned beyond the limit by the page size policy",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500},
	})
)

// ErrInvalidPageState is returned for a hand-built PageState that cannot terminate.
var ErrInvalidPageState = errors.New("invalid page state")

// Transport is the HTTP collaborator the engine drives. *client.Client
// implements it.
type Transport interface {
	Get(ctx context.Context, rawURL, accept string, headers http.Header) (*client.Response, error)
	Post(ctx context.Context, rawURL string, body []byte, accept string, headers http.Header) (*client.Response, error)
}

// Request describes one logical search.
type Request struct {
	// Endpoint is the search resource, e.g. "collections" or "granules"
	Endpoint string

	// Query holds the CMR search parameters; it is never modified
	Query url.Values

	// Filters is applied to every record before accumulation
	Filters filter.Pipeline

	// PageState is the initial state; nil means NewPageState(DefaultLimit)
	PageState *PageState
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine performs paginated, time-bounded CMR searches.
type Engine struct {
	transport Transport
	config    client.Config
	logger    zerolog.Logger
}

// NewEngine creates an engine. The configuration is copied and defaulted once.
func NewEngine(transport Transport, cfg client.Config, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		config:    cfg.WithDefaults(),
		logger:    logging.NewLogger(logging.ComponentPagination),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.WithRequestID(e.logger, e.config.RequestID)
	return e
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() client.Config {
	return e.config
}

// page is one decoded, filtered search response.
type page struct {
	hits  int
	took  time.Duration
	items []filter.Record
}

// empty reports whether the server ran out of results. Filters keep the page
// length, so the filtered count is the server's count.
func (p *page) empty() bool {
	return len(p.items) == 0
}

// SearchByPage runs one search to completion and returns at most Limit records.
// The search stops when the planned pages are read, when a page comes back
// empty, or when the time budget is spent.
//
// Remote errors are returned as *client.ErrorResponse with the server payload;
// responses that are not JSON yield an *client.ErrorResponse wrapping
// client.ErrUnknownResponse. Exceeding the time budget is not an error: the
// records read so far are returned.
func (e *Engine) SearchByPage(ctx context.Context, req Request) ([]filter.Record, error) {
	state, err := e.initState(req)
	if err != nil {
		return nil, err
	}
	defer e.releaseScroll(ctx, state)

	start := time.Now()
	e.logger.Info().
		Str("endpoint", req.Endpoint).
		Int("limit", state.Limit).
		Int("page_size", state.PageSize).
		Bool("scroll", state.Scrolling()).
		Msg("Starting search")

	var results []filter.Record
	for {
		p, err := e.fetchPage(ctx, req, state)
		if err != nil {
			e.logger.Error().
				Err(err).
				Str("endpoint", req.Endpoint).
				Int("page", state.PageNum).
				Msg("Search failed")
			return nil, err
		}
		results = append(results, p.items...)

		if p.empty() || !state.Continue() {
			break
		}

		elapsed := state.Elapsed + p.took
		if elapsed > e.config.MaxTime {
			e.logger.Warn().
				Str("endpoint", req.Endpoint).
				Int64("elapsed_ms", elapsed.Milliseconds()).
				Int64("max_time_ms", e.config.MaxTime.Milliseconds()).
				Int("items", len(results)).
				Msg("Max search time exceeded - returning partial results")
			searchBudgetExceededTotal.WithLabelValues(req.Endpoint).Inc()
			break
		}

		state.Advance(p.took)
	}

	results = truncate(results, state.Limit)

	e.logger.Info().
		Str("endpoint", req.Endpoint).
		Int("pages", state.PageNum).
		Int("items", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Search complete")

	return results, nil
}

// initState resolves the request's page state and rejects states whose loop
// would never terminate.
func (e *Engine) initState(req Request) (*PageState, error) {
	state := req.PageState
	if state == nil {
		state = NewPageState(DefaultLimit)
	}
	if state.PageSize < 1 || state.Limit < 1 || state.PageNum < 1 {
		return nil, fmt.Errorf("%w: page_size=%d page_num=%d limit=%d",
			ErrInvalidPageState, state.PageSize, state.PageNum, state.Limit)
	}

	if state.Scrolling() {
		pageOvershootRecords.Observe(float64(state.Overshoot))
		e.logger.Debug().
			Int("limit", state.Limit).
			Int("page_size", state.PageSize).
			Int("overshoot", state.Overshoot).
			Msg("Planned scrolling search")
	}
	return state, nil
}

// fetchPage issues one request for the current page and applies the filters.
func (e *Engine) fetchPage(ctx context.Context, req Request, state *PageState) (*page, error) {
	rawURL := e.config.SearchURL(req.Endpoint, pageQuery(req.Query, state))
	headers := client.StandardHeaders(e.config, state.scrollHeader())

	e.logger.Debug().
		Str("endpoint", req.Endpoint).
		Int("page", state.PageNum).
		Int("page_size", state.PageSize).
		Bool("scroll", state.scrollHeader() != "").
		Msg("Requesting page")

	resp, err := e.transport.Get(ctx, rawURL, e.config.Accept, headers)
	if err != nil {
		return nil, client.NewTransportError(err)
	}
	if resp.IsRaw() {
		return nil, client.NewUnknownResponse(resp.Raw)
	}
	if remote := resp.Errors(); remote != nil {
		return nil, remote
	}

	if state.Scrolling() {
		if id := resp.Header.Get(client.HeaderScrollID); id != "" {
			state.ScrollID = id
		}
	}

	p := &page{
		hits:  resp.IntOrHeader("hits", client.HeaderHits),
		took:  time.Duration(resp.IntOrHeader("took", client.HeaderTook)) * time.Millisecond,
		items: req.Filters.Apply(toRecords(resp.Items())),
	}

	searchPagesTotal.WithLabelValues(req.Endpoint).Inc()
	searchItemsTotal.WithLabelValues(req.Endpoint).Add(float64(len(p.items)))

	e.logger.Debug().
		Str("endpoint", req.Endpoint).
		Int("page", state.PageNum).
		Int("hits", p.hits).
		Int64("took_ms", p.took.Milliseconds()).
		Int("items", len(p.items)).
		Msg("Page received")

	return p, nil
}

// ClearScroll releases a scroll cursor on the server.
func (e *Engine) ClearScroll(ctx context.Context, scrollID string) error {
	body, err := json.Marshal(map[string]string{"scroll_id": scrollID})
	if err != nil {
		return fmt.Errorf("marshal clear scroll body: %w", err)
	}

	headers := client.StandardHeaders(e.config, "")
	headers.Set("Content-Type", "application/json")

	resp, err := e.transport.Post(ctx, e.config.ClearScrollURL(), body, "", headers)
	if err != nil {
		return client.NewTransportError(err)
	}
	if remote := resp.Errors(); remote != nil {
		return remote
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &client.ErrorResponse{
			Errors: []string{"clear scroll failed: " + http.StatusText(resp.StatusCode)},
			Code:   resp.StatusCode,
			Reason: resp.Raw,
		}
	}
	return nil
}

// releaseScroll clears the active scroll, if any. Failures are logged and
// never reach the caller. The release still runs when ctx is already done.
func (e *Engine) releaseScroll(ctx context.Context, state *PageState) {
	if state == nil || state.ScrollID == "" {
		return
	}
	scrollID := state.ScrollID
	state.ScrollID = ""

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Timeout)
	defer cancel()

	if err := e.ClearScroll(releaseCtx, scrollID); err != nil {
		scrollClearsTotal.WithLabelValues("error").Inc()
		e.logger.Warn().Err(err).Msg("Failed to clear scroll")
		return
	}
	scrollClearsTotal.WithLabelValues("ok").Inc()
	e.logger.Debug().Msg("Scroll cleared")
}

// pageQuery copies the caller's query and adds the paging parameters.
func pageQuery(query url.Values, state *PageState) url.Values {
	q := make(url.Values, len(query)+3)
	for key, values := range query {
		q[key] = append([]string(nil), values...)
	}

	q.Set("page_size", strconv.Itoa(state.PageSize))
	if state.Scrolling() {
		q.Set("scroll", "true")
	} else if state.PageNum > 1 {
		q.Set("page_num", strconv.Itoa(state.PageNum))
	}
	return q
}

// toRecords converts decoded JSON items into records; non-object items are skipped.
func toRecords(items []any) []filter.Record {
	records := make([]filter.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, filter.Record(m))
		}
	}
	return records
}

func truncate(items []filter.Record, limit int) []filter.Record {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
