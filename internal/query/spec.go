// Package query turns raw request parameters into a structured plan of
// filters, sort order, projection and pagination. Parsing is total: any
// input produces a usable Spec by falling back to defaults. The parser does
// not know which fields exist on an entity; validating field names is the
// job of the store that executes the spec.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Reserved parameter names that never become filters.
const (
	keyPage   = "page"
	keySort   = "sort"
	keyLimit  = "limit"
	keyFields = "fields"
)

// Defaults applied when page/limit are absent or not positive integers.
const (
	DefaultPage  = 1
	DefaultLimit = 6
)

// Op is a comparison operator carried by a filter.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpGt  Op = ">"
	OpLte Op = "<="
	OpLt  Op = "<"
)

// Filter is a single (field, operator, value) predicate.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// SortField names one field of the sort order; Desc marks descending.
type SortField struct {
	Field string
	Desc  bool
}

// Spec is the full query plan for a list operation. PageRequested records
// whether the client sent an explicit page parameter: an explicitly
// requested page that lies beyond the data is an error, while the implicit
// first page is simply returned (possibly empty).
type Spec struct {
	Filters       []Filter
	Sort          []SortField
	Fields        []string
	Page          int
	Limit         int
	PageRequested bool
}

// Skip returns the number of rows to skip before the requested window.
func (s Spec) Skip() int {
	return (s.Page - 1) * s.Limit
}

// Parse builds a Spec from raw URL parameters. Every non-reserved parameter
// becomes a filter; a bracketed suffix such as price[gte]=500 selects a
// comparison operator, no suffix means equality. When a parameter is
// repeated only its first value is used.
func Parse(params url.Values) Spec {
	s := Spec{Page: DefaultPage, Limit: DefaultLimit}

	for key, vals := range params {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case keyPage, keySort, keyLimit, keyFields:
			continue
		}
		field, op := splitOperator(key)
		s.Filters = append(s.Filters, Filter{Field: field, Op: op, Value: vals[0]})
	}

	s.Sort = parseSort(params.Get(keySort))
	if f := params.Get(keyFields); f != "" {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				s.Fields = append(s.Fields, part)
			}
		}
	}

	if raw := params.Get(keyPage); raw != "" {
		s.PageRequested = true
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			s.Page = n
		}
	}
	if raw := params.Get(keyLimit); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			s.Limit = n
		}
	}
	return s
}

// splitOperator pulls a trailing [op] suffix off a parameter key. Unknown
// suffixes are left in the field name and fall through as equality, matching
// the behavior of passing the key through untouched.
func splitOperator(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	switch key[open+1 : len(key)-1] {
	case "gte":
		return key[:open], OpGte
	case "gt":
		return key[:open], OpGt
	case "lte":
		return key[:open], OpLte
	case "lt":
		return key[:open], OpLt
	}
	return key, OpEq
}

// parseSort expands a comma-separated sort parameter. A leading '-' marks a
// descending field. An absent parameter sorts by newest first.
func parseSort(raw string) []SortField {
	if raw == "" {
		return []SortField{{Field: "createdAt", Desc: true}}
	}
	var out []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			out = append(out, SortField{Field: part[1:], Desc: true})
			continue
		}
		out = append(out, SortField{Field: part})
	}
	if len(out) == 0 {
		return []SortField{{Field: "createdAt", Desc: true}}
	}
	return out
}
