package search

import (
	"testing"

	"github.com/Sternrassler/cmr-client/pkg/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectionRecord() filter.Record {
	return filter.Record{
		"meta": map[string]any{
			"concept-id":  "C1200000001-PODAAC",
			"provider-id": "PODAAC",
			"revision-id": float64(3),
		},
		"umm": map[string]any{
			"ShortName":  "MODIS_A",
			"Version":    "2019.0",
			"EntryTitle": "MODIS Aqua L2",
			"Abstract":   "long text",
		},
	}
}

func TestCollectionIDs(t *testing.T) {
	got := CollectionIDs(collectionRecord())
	assert.Equal(t, filter.Record{
		"concept-id": "C1200000001-PODAAC",
		"ShortName":  "MODIS_A",
		"Version":    "2019.0",
		"EntryTitle": "MODIS Aqua L2",
	}, got)

	partial := filter.Record{"meta": map[string]any{"concept-id": "C1"}}
	assert.Equal(t, partial, CollectionIDs(partial))
}

func TestGranuleSearchFields(t *testing.T) {
	got := GranuleSearchFields(collectionRecord())
	assert.Equal(t, filter.Record{
		"provider-id": "PODAAC",
		"concept-id":  "C1200000001-PODAAC",
		"ShortName":   "MODIS_A",
		"Version":     "2019.0",
		"EntryTitle":  "MODIS Aqua L2",
	}, got)

	legacy := filter.Record{"id": "C1"}
	assert.Equal(t, legacy, GranuleSearchFields(legacy))
}

func TestGranuleCoreFields(t *testing.T) {
	granule := filter.Record{
		"meta": map[string]any{
			"concept-id":  "G1-PROV",
			"revision-id": float64(1),
			"native-id":   "",
		},
		"umm": map[string]any{
			"GranuleUR": "SC:MOD09GA.061:1",
		},
	}

	assert.Equal(t, filter.Record{
		"GranuleUR":   "SC:MOD09GA.061:1",
		"concept-id":  "G1-PROV",
		"revision-id": float64(1),
	}, GranuleCoreFields(granule))

	assert.Equal(t, filter.Record{}, GranuleCoreFields(filter.Record{"other": 1}))
}

func TestParseFilters(t *testing.T) {
	p, err := ParseFilters([]string{"collection-ids", "drop:Version"})
	require.NoError(t, err)
	require.Len(t, p, 2)

	got := p.ApplyOne(collectionRecord())
	assert.Equal(t, filter.Record{
		"concept-id": "C1200000001-PODAAC",
		"ShortName":  "MODIS_A",
		"EntryTitle": "MODIS Aqua L2",
	}, got)

	for _, name := range []string{"granule-search-fields", "granule-core-fields", "meta", "umm", "concept-ids"} {
		_, err := FilterByName(name)
		assert.NoError(t, err, name)
	}

	_, err = ParseFilters([]string{"meta", "bogus"})
	assert.Error(t, err)
}
