package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 50
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page is the envelope returned for paginated lists.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns params with a 1-based page and bounded limit.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Limit: NormalizeLimit(p.Limit)}
}

// Offset is the number of rows to skip for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NewPage wraps results with next/previous page numbers.
func NewPage[T any](params Params, total int64, results []T) Page[T] {
	n := params.Normalize()
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}
	if int64(n.Page*n.Limit) < total {
		next := n.Page + 1
		page.Next = &next
	}
	if n.Page > 1 {
		prev := n.Page - 1
		page.Previous = &prev
	}
	return page
}

// ParseQuery reads "page" and "page_size" from a query string. Invalid values fall back to defaults.
func ParseQuery(values url.Values) Params {
	return Params{
		Page:  atoiOrZero(values.Get("page")),
		Limit: atoiOrZero(values.Get("page_size")),
	}.Normalize()
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
