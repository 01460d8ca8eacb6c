package pagination

import "time"

// Paging limits enforced by CMR and by the sizing policy.
const (
	// MaxPageSize is the largest page CMR serves; larger limits need a scroll.
	MaxPageSize = 2000

	// MaxPageNum bounds the starting page in the non-scrolling policy.
	MaxPageNum = 50

	// MaxLimit is the largest number of records one search may ask for.
	MaxLimit = 100000

	// DefaultLimit is used when no limit is given.
	DefaultLimit = 10

	// DefaultPageSize is the page size hint used when none is given.
	DefaultPageSize = 10
)

// PageState is the client-side bookkeeping for one search. It is owned by a
// single search and must not be shared between concurrent searches.
type PageState struct {
	// PageSize is the number of records requested per page
	PageSize int

	// PageNum is the 1-based page counter
	PageNum int

	// Elapsed is the accumulated server processing time ("took")
	Elapsed time.Duration

	// Limit is the maximum number of records the caller wants
	Limit int

	// ScrollID is the server-assigned cursor, only tracked when scrolling
	ScrollID string

	// Overshoot is the number of records planned beyond Limit
	Overshoot int
}

// PageStateOption customises NewPageState.
type PageStateOption func(*PageState)

// WithPageSize sets the page size hint. It only matters for hand-built states:
// the sizing policy derives the page size from the limit.
func WithPageSize(n int) PageStateOption {
	return func(s *PageState) {
		s.PageSize = n
	}
}

// WithPageNum sets the starting page.
func WithPageNum(n int) PageStateOption {
	return func(s *PageState) {
		s.PageNum = n
	}
}

// WithElapsed sets the already consumed server time.
func WithElapsed(d time.Duration) PageStateOption {
	return func(s *PageState) {
		s.Elapsed = d
	}
}

// NewPageState builds the initial state for a search returning at most limit
// records. A zero limit means "not given" and becomes DefaultLimit.
//
// Values are clamped: page size to [1, 2000], page number to [1, 50], elapsed
// to >= 0 and limit to [1, 100000]. A limit that fits in one page becomes the
// page size. Larger limits are split into ceil(limit/2000)+1 equal pages (or
// pages of 2000 when the limit is a multiple of it) to keep the last page from
// fetching far more than needed.
func NewPageState(limit int, opts ...PageStateOption) *PageState {
	s := &PageState{
		PageSize: DefaultPageSize,
		PageNum:  1,
		Limit:    limit,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.Limit == 0 {
		s.Limit = DefaultLimit
	}
	s.PageSize = clamp(s.PageSize, 1, MaxPageSize)
	s.PageNum = clamp(s.PageNum, 1, MaxPageNum)
	s.Limit = clamp(s.Limit, 1, MaxLimit)
	if s.Elapsed < 0 {
		s.Elapsed = 0
	}

	s.plan()
	return s
}

// plan applies the page size policy.
func (s *PageState) plan() {
	s.Overshoot = 0

	switch {
	case s.Limit <= MaxPageSize:
		s.PageSize = s.Limit
	case s.Limit%MaxPageSize == 0:
		s.PageSize = MaxPageSize
	default:
		pages := ceilDiv(s.Limit, MaxPageSize) + 1
		s.PageSize = ceilDiv(s.Limit, pages)
		s.Overshoot = pages*s.PageSize - s.Limit
	}
}

// Scrolling reports whether the search needs a scroll cursor.
func (s *PageState) Scrolling() bool {
	return s.Limit > MaxPageSize
}

// Continue reports whether another page is needed. It compares the records
// requested so far with the limit, not the records received or the server hits.
func (s *PageState) Continue() bool {
	return s.PageSize*s.PageNum < s.Limit
}

// Advance moves the state to the next page, adding the server time of the
// page just read.
func (s *PageState) Advance(took time.Duration) {
	s.PageNum++
	s.Elapsed += took
}

// scrollHeader returns the scroll id to send, empty when not scrolling.
func (s *PageState) scrollHeader() string {
	if !s.Scrolling() {
		return ""
	}
	return s.ScrollID
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
