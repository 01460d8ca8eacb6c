package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Sternrassler/cmr-client/pkg/cache"
	"github.com/Sternrassler/cmr-client/pkg/client"
	"github.com/Sternrassler/cmr-client/pkg/filter"
	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/Sternrassler/cmr-client/pkg/metrics"
	"github.com/Sternrassler/cmr-client/pkg/pagination"
	"github.com/Sternrassler/cmr-client/pkg/search"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// server exposes searches over HTTP. Every request gets its own copy of the
// client configuration.
type server struct {
	transport pagination.Transport
	config    client.Config
	cache     *cache.Manager // nil when caching is disabled
	logger    zerolog.Logger
}

func newServer(transport pagination.Transport, cfg client.Config, cacheManager *cache.Manager, logger zerolog.Logger) *server {
	return &server{
		transport: transport,
		config:    cfg,
		cache:     cacheManager,
		logger:    logger,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /search/{endpoint}", s.searchHandler)
	mux.HandleFunc("GET /providers", s.providersHandler)
	mux.HandleFunc("DELETE /cache", s.flushCacheHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// searchResult is the body returned for searches.
type searchResult struct {
	Hits  int             `json:"hits"`
	Items []filter.Record `json:"items"`
}

func (s *server) searchHandler(w http.ResponseWriter, r *http.Request) {
	endpoint := r.PathValue("endpoint")
	if endpoint != search.EndpointCollections && endpoint != search.EndpointGranules {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, client.ErrorResponse{
				Errors: []string{fmt.Sprintf("invalid limit %q", raw)},
				Code:   http.StatusBadRequest,
			})
			return
		}
		limit = n
	}

	filters, err := search.ParseFilters(query["filter"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, client.ErrorResponse{
			Errors: []string{err.Error()},
			Code:   http.StatusBadRequest,
		})
		return
	}

	query.Del("limit")
	query.Del("filter")

	searcher := s.searcher(w, r)
	var records []filter.Record
	if endpoint == search.EndpointCollections {
		records, err = searcher.Collections(r.Context(), query, limit, filters...)
	} else {
		records, err = searcher.Granules(r.Context(), query, limit, filters...)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if records == nil {
		records = []filter.Record{}
	}
	writeJSON(w, http.StatusOK, searchResult{Hits: len(records), Items: records})
}

func (s *server) providersHandler(w http.ResponseWriter, r *http.Request) {
	providers, err := s.searcher(w, r).ProvidersByID(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult{Hits: len(providers), Items: providers})
}

func (s *server) flushCacheHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusNotFound, client.ErrorResponse{
			Errors: []string{"response cache is disabled"},
			Code:   http.StatusNotFound,
		})
		return
	}

	removed, err := s.cache.Flush(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Cache flush failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// searcher builds a searcher for one inbound request. An inbound
// Authorization header replaces the configured credential for this request
// only; the request id is taken from X-Request-Id or generated.
func (s *server) searcher(w http.ResponseWriter, r *http.Request) *search.Searcher {
	cfg := s.config
	if authorization := r.Header.Get(client.HeaderAuthorization); authorization != "" {
		cfg.Authorization = authorization
	}
	cfg.RequestID = r.Header.Get(client.HeaderRequestID)
	if cfg.RequestID == "" {
		cfg.RequestID = uuid.NewString()
	}
	w.Header().Set(client.HeaderRequestID, cfg.RequestID)

	logger := logging.WithRequestID(s.logger, cfg.RequestID)
	return search.New(s.transport, cfg, pagination.WithLogger(logger))
}

// writeError maps CMR error objects to 502 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	var remote *client.ErrorResponse
	if errors.As(err, &remote) {
		writeJSON(w, http.StatusBadGateway, remote)
		return
	}
	writeJSON(w, http.StatusInternalServerError, client.ErrorResponse{
		Errors: []string{err.Error()},
		Code:   http.StatusInternalServerError,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
