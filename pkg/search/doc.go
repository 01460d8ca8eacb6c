// Package search wraps the pagination engine with CMR domain helpers:
// collection and granule searches, the provider listing, sort helpers,
// common limits and record filters tailored to each concept type.
//
// Basic usage:
//
//	c, _ := client.New(client.Config{Env: "uat"})
//	s := search.New(c, c.Config())
//
//	query := search.SortBy(url.Values{"provider": {"PODAAC"}}, search.SortShortName)
//	collections, err := s.Collections(ctx, query, search.LimitHundred, search.CollectionIDs)
package search
