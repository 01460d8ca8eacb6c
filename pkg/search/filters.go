package search

import (
	"github.com/Sternrassler/cmr-client/pkg/filter"
	"github.com/samber/lo"
)

// CollectionIDs reduces a UMM-JSON collection to the fields identifying it.
// Records without both "meta" and "umm" are returned unchanged.
func CollectionIDs(r filter.Record) filter.Record {
	meta, umm, ok := metaAndUmm(r)
	if !ok {
		return r
	}
	return filter.Record{
		"concept-id": meta["concept-id"],
		"ShortName":  umm["ShortName"],
		"Version":    umm["Version"],
		"EntryTitle": umm["EntryTitle"],
	}
}

// GranuleSearchFields reduces a collection to the fields needed to search its
// granules. Records without both "meta" and "umm" are returned unchanged.
func GranuleSearchFields(r filter.Record) filter.Record {
	meta, umm, ok := metaAndUmm(r)
	if !ok {
		return r
	}
	return filter.Record{
		"provider-id": meta["provider-id"],
		"concept-id":  meta["concept-id"],
		"ShortName":   umm["ShortName"],
		"Version":     umm["Version"],
		"EntryTitle":  umm["EntryTitle"],
	}
}

// GranuleCoreFields reduces a granule to its identifying fields, omitting
// the ones that are absent or blank.
func GranuleCoreFields(r filter.Record) filter.Record {
	meta, _ := filter.Sub(r, "meta")
	umm, _ := filter.Sub(r, "umm")

	record := map[string]any{
		"GranuleUR":   umm["GranuleUR"],
		"concept-id":  meta["concept-id"],
		"revision-id": meta["revision-id"],
		"native-id":   meta["native-id"],
	}
	return filter.Record(lo.OmitBy(record, func(_ string, v any) bool {
		return blank(v)
	}))
}

// FilterByName resolves the generic filter names of filter.ByName plus
// "collection-ids", "granule-search-fields" and "granule-core-fields".
func FilterByName(name string) (filter.Filter, error) {
	switch name {
	case "collection-ids":
		return CollectionIDs, nil
	case "granule-search-fields":
		return GranuleSearchFields, nil
	case "granule-core-fields":
		return GranuleCoreFields, nil
	default:
		return filter.ByName(name)
	}
}

// ParseFilters resolves a list of filter names, see FilterByName.
func ParseFilters(names []string) (filter.Pipeline, error) {
	p := make(filter.Pipeline, 0, len(names))
	for _, name := range names {
		f, err := FilterByName(name)
		if err != nil {
			return nil, err
		}
		p = append(p, f)
	}
	return p, nil
}

func metaAndUmm(r filter.Record) (filter.Record, filter.Record, bool) {
	meta, ok := filter.Sub(r, "meta")
	if !ok {
		return nil, nil, false
	}
	umm, ok := filter.Sub(r, "umm")
	if !ok {
		return nil, nil, false
	}
	return meta, umm, true
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case int:
		return x == 0
	case bool:
		return !x
	default:
		return false
	}
}
