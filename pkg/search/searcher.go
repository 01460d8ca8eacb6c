package search

import (
	"context"
	"iter"
	"net/url"
	"regexp"
	"strings"

	"github.com/Sternrassler/cmr-client/pkg/client"
	"github.com/Sternrassler/cmr-client/pkg/filter"
	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/Sternrassler/cmr-client/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Endpoints served by the search API.
const (
	EndpointCollections = "collections"
	EndpointGranules    = "granules"
)

// deprecatedProviderFields are removed from every provider record.
var deprecatedProviderFields = []string{"cmr-only", "small"}

// Searcher runs domain searches against one CMR configuration.
type Searcher struct {
	engine    *pagination.Engine
	transport pagination.Transport
	config    client.Config
	logger    zerolog.Logger
}

// New creates a Searcher. opts are passed to the underlying engine.
func New(transport pagination.Transport, cfg client.Config, opts ...pagination.Option) *Searcher {
	engine := pagination.NewEngine(transport, cfg, opts...)
	return &Searcher{
		engine:    engine,
		transport: transport,
		config:    engine.Config(),
		logger:    logging.WithRequestID(logging.NewLogger(logging.ComponentSearch), cfg.RequestID),
	}
}

// Engine returns the pagination engine used by the searcher.
func (s *Searcher) Engine() *pagination.Engine {
	return s.engine
}

// Collections searches collections. A zero limit means LimitDefault and a
// negative limit means LimitMax.
func (s *Searcher) Collections(ctx context.Context, query url.Values, limit int, filters ...filter.Filter) ([]filter.Record, error) {
	return s.engine.SearchByPage(ctx, s.request(EndpointCollections, query, limit, filters))
}

// Granules searches granules, with the same limit rules as Collections.
func (s *Searcher) Granules(ctx context.Context, query url.Values, limit int, filters ...filter.Filter) ([]filter.Record, error) {
	return s.engine.SearchByPage(ctx, s.request(EndpointGranules, query, limit, filters))
}

// GranuleRecords is the lazy form of Granules: pages are fetched while the
// sequence is consumed and errors are logged instead of returned.
func (s *Searcher) GranuleRecords(ctx context.Context, query url.Values, limit int, filters ...filter.Filter) iter.Seq[filter.Record] {
	return s.engine.Records(ctx, s.request(EndpointGranules, query, limit, filters))
}

func (s *Searcher) request(endpoint string, query url.Values, limit int, filters []filter.Filter) pagination.Request {
	return pagination.Request{
		Endpoint:  endpoint,
		Query:     query,
		Filters:   filter.Chain(filters...),
		PageState: pagination.NewPageState(normalizeLimit(limit)),
	}
}

// Providers lists the CMR providers, without the deprecated "cmr-only" and
// "small" fields.
func (s *Searcher) Providers(ctx context.Context) ([]filter.Record, error) {
	headers := client.StandardHeaders(s.config, "")
	resp, err := s.transport.Get(ctx, s.config.IngestURL("providers"), "application/json", headers)
	if err != nil {
		return nil, client.NewTransportError(err)
	}
	if resp.IsRaw() {
		return nil, client.NewUnknownResponse(resp.Raw)
	}
	if remote := resp.Errors(); remote != nil {
		s.logger.Error().Err(remote).Msg("Provider listing failed")
		return nil, remote
	}

	providers := make([]filter.Record, 0, len(resp.Items()))
	for _, item := range resp.Items() {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		providers = append(providers, filter.Record(lo.OmitByKeys(m, deprecatedProviderFields)))
	}

	s.logger.Debug().Int("providers", len(providers)).Msg("Providers listed")
	return providers, nil
}

// ProvidersByID lists the providers whose "provider-id" matches pattern, a
// case-insensitive regular expression anchored at the start of the id. A
// blank pattern returns every provider.
func (s *Searcher) ProvidersByID(ctx context.Context, pattern string) ([]filter.Record, error) {
	pattern = strings.TrimSpace(pattern)

	var expr *regexp.Regexp
	if pattern != "" {
		var err error
		expr, err = regexp.Compile("(?i)^(?:" + pattern + ")")
		if err != nil {
			return nil, &client.ErrorResponse{
				Errors: []string{"Regular Expression is invalid and could not compile"},
				Reason: err.Error(),
				Err:    err,
			}
		}
	}

	providers, err := s.Providers(ctx)
	if err != nil || expr == nil {
		return providers, err
	}

	return lo.Filter(providers, func(p filter.Record, _ int) bool {
		id, _ := p["provider-id"].(string)
		return expr.MatchString(id)
	}), nil
}
