// Package pagination implements the scroll-aware search engine for CMR.
//
// CMR caps a page at 2000 records; larger result sets are read with a scroll
// cursor the server assigns on the first request. The engine plans the page
// size up front (NewPageState), then fetches pages strictly in sequence: each
// response may carry the CMR-Scroll-Id the next request has to echo.
//
// Example usage:
//
//	engine := pagination.NewEngine(cmrClient, cfg)
//	records, err := engine.SearchByPage(ctx, pagination.Request{
//		Endpoint:  "granules",
//		Query:     url.Values{"short_name": []string{"MOD09GA"}},
//		Filters:   filter.Chain(filter.ConceptIDs),
//		PageState: pagination.NewPageState(4000),
//	})
//
// The engine:
//   - Sizes pages so the last page overshoots the limit as little as possible
//   - Sends the scroll id on every follow-up request when the limit exceeds one page
//   - Applies the filter pipeline to each page before accumulating it
//   - Stops once page_size * page_num reaches the limit, or when the summed
//     server "took" time exceeds Config.MaxTime (partial results, warning logged)
//   - Releases the scroll cursor when the search ends; release failures are logged only
//   - Returns remote and unknown-response errors unchanged and never retries
//
// Records is the lazy variant: it yields records as pages arrive and logs
// errors instead of returning them. It applies no time budget.
package pagination
