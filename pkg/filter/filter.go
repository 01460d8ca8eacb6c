package filter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Record is a single CMR result item, decoded from JSON.
type Record map[string]any

// Filter transforms one record. Filters must not mutate their input.
type Filter func(Record) Record

// Pipeline is an ordered list of filters applied left to right.
// A nil or empty pipeline is the identity.
type Pipeline []Filter

// Chain builds a pipeline from the given filters. Nil filters are skipped.
func Chain(filters ...Filter) Pipeline {
	return lo.Filter(filters, func(f Filter, _ int) bool {
		return f != nil
	})
}

// ApplyOne runs every filter of the pipeline over a single record. Nil
// entries are skipped.
func (p Pipeline) ApplyOne(r Record) Record {
	result := r
	for _, f := range p {
		if f != nil {
			result = f(result)
		}
	}
	return result
}

// Apply runs the pipeline over a page of records. The output has the same
// length and order as the input.
func (p Pipeline) Apply(items []Record) []Record {
	if len(p) == 0 {
		return items
	}

	result := make([]Record, len(items))
	for i, item := range items {
		result[i] = p.ApplyOne(item)
	}
	return result
}

// Identity returns the record unchanged.
func Identity(r Record) Record {
	return r
}

// Meta projects a record to its "meta" sub-object.
func Meta(r Record) Record {
	return project(r, "meta")
}

// Umm projects a record to its "umm" sub-object.
func Umm(r Record) Record {
	return project(r, "umm")
}

// ConceptIDs reduces a record to the fields that identify it. The concept id is
// read from the nested "meta" object when present, otherwise from the top level.
func ConceptIDs(r Record) Record {
	if meta, ok := Sub(r, "meta"); ok {
		if id, ok := meta["concept-id"]; ok {
			return Record{"concept-id": id}
		}
		return r
	}
	if id, ok := r["concept-id"]; ok {
		return Record{"concept-id": id}
	}
	return r
}

// Drop returns a filter that removes key from a record. Dropping an absent key
// is a no-op. The input record is never modified.
func Drop(key string) Filter {
	return func(r Record) Record {
		if _, ok := r[key]; !ok {
			return r
		}
		return Record(lo.OmitByKeys(map[string]any(r), []string{key}))
	}
}

// Sub returns the nested object stored under key, if it is an object.
func Sub(r Record, key string) (Record, bool) {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v), true
	case Record:
		return v, true
	default:
		return nil, false
	}
}

func project(r Record, key string) Record {
	if sub, ok := Sub(r, key); ok {
		return sub
	}
	return r
}

// ByName resolves a filter from its name. Recognised names are "identity",
// "meta", "umm", "concept-ids" and "drop:<key>".
func ByName(name string) (Filter, error) {
	switch name = strings.TrimSpace(name); {
	case name == "identity" || name == "none":
		return Identity, nil
	case name == "meta":
		return Meta, nil
	case name == "umm":
		return Umm, nil
	case name == "concept-ids":
		return ConceptIDs, nil
	case strings.HasPrefix(name, "drop:"):
		key := strings.TrimPrefix(name, "drop:")
		if key == "" {
			return nil, fmt.Errorf("drop filter requires a key")
		}
		return Drop(key), nil
	default:
		return nil, fmt.Errorf("unknown filter %q", name)
	}
}

// ParseNames resolves a list of filter names into a pipeline.
func ParseNames(names []string) (Pipeline, error) {
	p := make(Pipeline, 0, len(names))
	for _, name := range names {
		f, err := ByName(name)
		if err != nil {
			return nil, err
		}
		p = append(p, f)
	}
	return p, nil
}
