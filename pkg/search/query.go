package search

import (
	"net/url"
	"strings"
)

// Limits commonly used with CMR. Any positive integer up to LimitMax works.
const (
	LimitUnlimited   = -1     // page until LimitMax
	LimitOne         = 1      // a single record
	LimitTen         = 10     // half the CMR default
	LimitDefault     = 20     // the CMR default page size
	LimitHundred     = 100    // a human-sized result
	LimitKilo        = 1024   // an even amount of metadata
	LimitPage        = 2000   // the largest page CMR serves
	LimitCollections = 30000  // roughly every collection
	LimitMax         = 100000 // the largest search the client runs
)

// SortKey is a CMR sort_key value.
type SortKey string

// Collection sort keys.
const (
	SortEntryTitle        SortKey = "entry_title"
	SortDatasetID         SortKey = "dataset_id"
	SortShortName         SortKey = "short_name"
	SortEntryID           SortKey = "entry_id"
	SortStartDate         SortKey = "start_date"
	SortEndDate           SortKey = "end_date"
	SortPlatform          SortKey = "platform"
	SortInstrument        SortKey = "instrument"
	SortSensor            SortKey = "sensor"
	SortProvider          SortKey = "provider"
	SortRevisionDate      SortKey = "revision_date"
	SortScore             SortKey = "score"
	SortHasGranules       SortKey = "has_granules"
	SortHasGranulesOrCWIC SortKey = "has_granules_or_cwic"
	SortUsageScore        SortKey = "usage_score"
	SortOngoing           SortKey = "ongoing"
)

// Granule sort keys not shared with collections.
const (
	SortGranuleUR         SortKey = "granule_ur"
	SortProducerGranuleID SortKey = "producer_granule_id"
	SortCloudCover        SortKey = "cloud_cover"
	SortDayNightFlag      SortKey = "day_night_flag"
)

const sortParam = "sort_key"

// SortBy sets the sort key of query and returns it for chaining. A nil query
// is allocated; an empty key leaves the query unchanged.
func SortBy(query url.Values, key SortKey) url.Values {
	if query == nil {
		query = url.Values{}
	}
	if key != "" {
		query.Set(sortParam, string(key))
	}
	return query
}

// Descending reverses the sort order of query, setting key first when given.
// A sort key that is already descending is left alone.
func Descending(query url.Values, key SortKey) url.Values {
	query = SortBy(query, key)

	value := query.Get(sortParam)
	if value != "" && !strings.HasPrefix(value, "-") {
		query.Set(sortParam, "-"+value)
	}
	return query
}

// normalizeLimit maps the wrapper limits onto the engine's accepted range.
func normalizeLimit(limit int) int {
	switch {
	case limit == 0:
		return LimitDefault
	case limit < 0:
		return LimitMax
	default:
		return limit
	}
}
