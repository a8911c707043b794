// Package pagination parses page/limit query parameters and builds list metadata.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds a 1-based page and its size
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta describes a page of results
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// List is the payload for paginated endpoints
type List struct {
	Items interface{} `json:"items"`
	Meta  Meta        `json:"meta"`
}

// FromRequest reads page and limit from the query string.
// Missing or malformed values fall back to the defaults; limit is capped at MaxLimit.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := Params{Page: DefaultPage, Limit: DefaultLimit}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	p.Normalize()
	return p
}

// Normalize clamps the params into their valid range
func (p *Params) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset is the number of records before this page
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta builds the metadata for a result set of total records
func (p Params) Meta(total int) Meta {
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		pages = 1
	}
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
	}
}

// NewList wraps items with the metadata for total
func (p Params) NewList(items interface{}, total int) List {
	return List{Items: items, Meta: p.Meta(total)}
}
