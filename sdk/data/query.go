package data

import (
	"net/url"
	"sort"
	"strconv"
)

// Query narrows, orders and pages the records an endpoint returns. The zero
// value asks for everything in the master's default order.
type Query struct {
	// Limit caps the number of records returned. Zero means no limit.
	Limit int
	// Offset skips records before applying Limit.
	Offset int
	// Order lists field names to sort by; a leading "-" sorts descending.
	Order []string
	// Fields restricts which fields are returned.
	Fields []string
	// Properties names build properties to inline in build records. "*"
	// selects all of them.
	Properties []string
	// Filters are field conditions in the master's own syntax, e.g.
	// "complete": "false" or "number__gt": "10".
	Filters map[string]string
}

// Params renders q as query string parameters understood by the master.
func (q Query) Params() url.Values {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	for _, order := range q.Order {
		params.Add("order", order)
	}
	for _, field := range q.Fields {
		params.Add("field", field)
	}
	for _, property := range q.Properties {
		params.Add("property", property)
	}
	keys := make([]string, 0, len(q.Filters))
	for key := range q.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		params.Add(key, q.Filters[key])
	}
	return params
}

// Next returns a copy of q advanced by count records.
func (q Query) Next(count int) Query {
	q.Offset += count
	return q
}
