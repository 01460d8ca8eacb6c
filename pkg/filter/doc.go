// Package filter provides the result filter pipeline applied to every CMR record
// before it is accumulated by the pagination engine.
//
// A filter is a pure, total function over a Record. Filters never fail on missing
// keys: when the key a filter looks for is absent the record passes through
// unchanged. A Pipeline applies its filters left to right, feeding the output of
// each filter to the next.
//
// Example usage:
//
//	p := filter.Chain(filter.Drop("umm"), filter.Meta)
//	out := p.Apply(items)
//
// Provided primitives:
//   - Identity: pass-through
//   - Meta: project to the "meta" sub-object
//   - Umm: project to the "umm" sub-object
//   - ConceptIDs: reduce to {"concept-id": ...} from the top level or "meta"
//   - Drop(key): remove one key if present
package filter
