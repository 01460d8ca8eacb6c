package pagination

import (
	"context"
	"iter"

	"github.com/Sternrassler/cmr-client/pkg/filter"
)

// Records returns a lazy sequence of filtered records for req. Pages are
// fetched as the caller consumes records, following the same page sizing,
// continue, empty page and scroll rules as SearchByPage; at most Limit records are yielded.
//
// Errors end the sequence and are logged, not returned. No time budget is
// applied. Stopping the range early releases the scroll cursor. When
// req.PageState is set, the sequence advances that state and cannot be
// restarted once a scroll id has been assigned.
func (e *Engine) Records(ctx context.Context, req Request) iter.Seq[filter.Record] {
	return func(yield func(filter.Record) bool) {
		state, err := e.initState(req)
		if err != nil {
			e.logger.Error().Err(err).Str("endpoint", req.Endpoint).Msg("Search not started")
			return
		}
		defer e.releaseScroll(ctx, state)

		emitted := 0
		for {
			p, err := e.fetchPage(ctx, req, state)
			if err != nil {
				e.logger.Error().
					Err(err).
					Str("endpoint", req.Endpoint).
					Int("page", state.PageNum).
					Msg("Search failed")
				return
			}

			for _, item := range p.items {
				if emitted >= state.Limit {
					return
				}
				if !yield(item) {
					return
				}
				emitted++
			}

			if p.empty() || !state.Continue() {
				return
			}
			state.Advance(p.took)
		}
	}
}
