// Package testutil provides testing utilities for the CMR client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ClearScrollPath is the path of the scroll release endpoint.
const ClearScrollPath = "/search/clear-scroll"

// MockPage is one scripted search response.
type MockPage struct {
	Hits     int
	Took     int // milliseconds
	Items    []map[string]any
	ScrollID string

	// StatusCode defaults to 200
	StatusCode int

	// Body replaces the generated JSON body when set
	Body string

	Delay time.Duration
}

// RecordedRequest is a request received by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// MockCMR is a configurable mock CMR server for testing.
//
// Search paths serve their scripted pages in order; once the script is
// exhausted an empty page is served. The clear-scroll endpoint records the
// released ids and answers 204 unless ClearScrollStatus is set.
type MockCMR struct {
	server   *httptest.Server
	mu       sync.RWMutex
	pages    map[string][]MockPage
	served   map[string]int
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	requests []RecordedRequest
	cleared  []string

	clearScrollStatus int
}

// NewMockCMR creates a new mock CMR server.
func NewMockCMR() *MockCMR {
	mock := &MockCMR{
		pages:    make(map[string][]MockPage),
		served:   make(map[string]int),
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		if r.URL.Path == ClearScrollPath {
			mock.clearScroll(w, body)
			return
		}
		mock.servePage(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCMR) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCMR) Close() {
	m.server.Close()
}

// Reset clears recorded requests, scripted pages and counters.
func (m *MockCMR) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = make(map[string][]MockPage)
	m.served = make(map[string]int)
	m.requests = nil
	m.cleared = nil
}

// SetPages scripts the responses for a path such as "/search/granules".
func (m *MockCMR) SetPages(path string, pages ...MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[path] = pages
	m.served[path] = 0
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCMR) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetClearScrollStatus makes the clear-scroll endpoint answer with status.
func (m *MockCMR) SetClearScrollStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearScrollStatus = status
}

// Requests returns the requests received so far.
func (m *MockCMR) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestsTo returns the requests received for one path.
func (m *MockCMR) RequestsTo(path string) []RecordedRequest {
	var found []RecordedRequest
	for _, r := range m.Requests() {
		if r.Path == path {
			found = append(found, r)
		}
	}
	return found
}

// ClearedScrolls returns the scroll ids released through clear-scroll.
func (m *MockCMR) ClearedScrolls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.cleared...)
}

func (m *MockCMR) servePage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	script := m.pages[r.URL.Path]
	n := m.served[r.URL.Path]
	m.served[r.URL.Path] = n + 1
	m.mu.Unlock()

	page := MockPage{Items: []map[string]any{}}
	if n < len(script) {
		page = script[n]
	}

	if page.Delay > 0 {
		time.Sleep(page.Delay)
	}

	w.Header().Set("Content-Type", "application/vnd.nasa.cmr.umm_results+json; charset=utf-8")
	w.Header().Set("CMR-Hits", strconv.Itoa(page.Hits))
	w.Header().Set("CMR-Took", strconv.Itoa(page.Took))
	if page.ScrollID != "" {
		w.Header().Set("CMR-Scroll-Id", page.ScrollID)
	}

	status := page.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if page.Body != "" {
		w.Write([]byte(page.Body))
		return
	}

	items := page.Items
	if items == nil {
		items = []map[string]any{}
	}
	json.NewEncoder(w).Encode(map[string]any{
		"hits":  page.Hits,
		"took":  page.Took,
		"items": items,
	})
}

func (m *MockCMR) clearScroll(w http.ResponseWriter, body []byte) {
	var req struct {
		ScrollID string `json:"scroll_id"`
	}
	_ = json.Unmarshal(body, &req)

	m.mu.Lock()
	m.cleared = append(m.cleared, req.ScrollID)
	status := m.clearScrollStatus
	m.mu.Unlock()

	if status != 0 && status != http.StatusNoContent {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"errors":["Scroll session [%s] does not exist"]}`, req.ScrollID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Records generates n UMM-JSON style records with concept ids "<prefix>-<i>".
func Records(prefix string, start, n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		id := fmt.Sprintf("%s-%d", prefix, start+i)
		items[i] = map[string]any{
			"meta": map[string]any{
				"concept-id":  id,
				"provider-id": "PROV",
				"revision-id": 1,
				"native-id":   "native-" + id,
			},
			"umm": map[string]any{
				"GranuleUR": "ur-" + id,
				"ShortName": "SN",
				"Version":   "1",
			},
		}
	}
	return items
}
