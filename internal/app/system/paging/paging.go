// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the limit a client may ask for.
const MaxPageSize = 500

// Page is an offset window over a sorted list.
type Page struct {
	Limit  int64
	Offset int64
}

// Parse reads "limit" and "offset" from the query string. Missing or
// invalid values fall back to PageSize and 0; limit is clamped to
// MaxPageSize. A 1-based "start" is honored when "offset" is absent.
func Parse(r *http.Request) Page {
	p := Page{Limit: PageSize}
	if n, ok := parseInt(query.Get(r, "limit")); ok && n > 0 {
		p.Limit = min(n, MaxPageSize)
	}
	if n, ok := parseInt(query.Get(r, "offset")); ok && n >= 0 {
		p.Offset = n
	} else if off, ok := ParseStart(r); ok {
		p.Offset = off
	}
	return p
}

// ParseStart extracts the human-friendly "start" query parameter (1-based
// index) and converts it to an offset.
func ParseStart(r *http.Request) (int64, bool) {
	n, ok := parseInt(query.Get(r, "start"))
	if !ok || n < 1 {
		return 0, false
	}
	return n - 1, true
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// List is the envelope every paged endpoint returns.
type List[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	HasNext bool  `json:"has_next"`
}

// NewList wraps one page of rows. A nil slice encodes as [].
func NewList[T any](items []T, total int64, p Page) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{
		Items:   items,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasNext: p.Offset+int64(len(items)) < total,
	}
}
