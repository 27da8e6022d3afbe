// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// pageWindow is how many numbered links surround the current page.
const pageWindow = 5

// Pagination is the pager rendered under the dashboard tables. Links
// keep the list filters of the current request.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	PerPage     int
	HasPrev     bool
	HasNext     bool
	Pages       []PageLink

	path  string
	query url.Values
}

// PageLink is one pager entry. Ellipsis entries have no number.
type PageLink struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination pages totalItems by perPage. page is clamped into range
// and every non-empty filter in query except "page" is carried into the
// links.
func BuildPagination(page, totalItems, perPage int, path string, query url.Values) Pagination {
	total := CalculateTotalPages(totalItems, perPage)
	page = ClampPage(page, total)

	kept := url.Values{}
	for key, values := range query {
		if key != "page" && len(values) > 0 && values[0] != "" {
			kept[key] = values
		}
	}

	p := Pagination{
		CurrentPage: page,
		TotalPages:  total,
		TotalItems:  totalItems,
		PerPage:     perPage,
		HasPrev:     page > 1,
		HasNext:     page < total,
		path:        path,
		query:       kept,
	}
	p.Pages = p.links()
	return p
}

// PageURL links to page n with the current filters.
func (p Pagination) PageURL(n int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(n))
	return p.path + "?" + q.Encode()
}

func (p Pagination) PrevURL() string { return p.PageURL(p.CurrentPage - 1) }

func (p Pagination) NextURL() string { return p.PageURL(p.CurrentPage + 1) }

// ShouldShow hides the pager for single-page lists.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// PageRange is the 1-based item span on the current page, e.g. "21-40".
func (p Pagination) PageRange() string {
	if p.TotalItems == 0 {
		return "0"
	}
	first := (p.CurrentPage-1)*p.PerPage + 1
	last := min(p.CurrentPage*p.PerPage, p.TotalItems)
	return fmt.Sprintf("%d-%d", first, last)
}

// links numbers a window of pages around the current one. The first and
// last pages are always linked and gaps become ellipses.
func (p Pagination) links() []PageLink {
	lo := max(1, min(p.CurrentPage-pageWindow/2, p.TotalPages-pageWindow+1))
	hi := min(p.TotalPages, lo+pageWindow-1)

	number := func(n int) PageLink {
		return PageLink{Number: n, URL: p.PageURL(n), IsCurrent: n == p.CurrentPage}
	}

	var out []PageLink
	if lo > 1 {
		out = append(out, number(1))
		if lo > 2 {
			out = append(out, PageLink{IsEllipsis: true})
		}
	}
	for n := lo; n <= hi; n++ {
		out = append(out, number(n))
	}
	if hi < p.TotalPages {
		if hi < p.TotalPages-1 {
			out = append(out, PageLink{IsEllipsis: true})
		}
		out = append(out, number(p.TotalPages))
	}
	return out
}

// PageSlice returns the items on page. perPage <= 0 returns all items.
func PageSlice[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		return items
	}
	from := (page - 1) * perPage
	if from < 0 || from >= len(items) {
		return []T{}
	}
	return items[from:min(from+perPage, len(items))]
}

// CalculateTotalPages never returns less than one page.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + perPage - 1) / perPage
}

// ClampPage moves page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	return max(1, min(page, totalPages))
}

// ParsePageParam reads ?page=, defaulting to 1.
func ParsePageParam(r *http.Request) int {
	return queryInt(r, "page", 1, 1, 0)
}

// ParsePerPageParam reads ?per_page=. Values outside [1, maxPerPage]
// yield defaultPerPage.
func ParsePerPageParam(r *http.Request, defaultPerPage, maxPerPage int) int {
	return queryInt(r, "per_page", defaultPerPage, 1, maxPerPage)
}

// queryInt parses a query parameter, returning def when it is absent,
// malformed or outside [lo, hi]. A zero hi means no upper bound.
func queryInt(r *http.Request, name string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < lo || (hi > 0 && v > hi) {
		return def
	}
	return v
}
