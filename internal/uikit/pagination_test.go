// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(5, 200, 20, "/admin/pages", url.Values{"type": {"blog"}, "page": {"5"}, "empty": {""}})

	assert.Equal(t, 10, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, "/admin/pages?page=4&type=blog", p.PrevURL())
	assert.Equal(t, "/admin/pages?page=6&type=blog", p.NextURL())
	assert.NotContains(t, p.PageURL(1), "empty=")
	assert.Equal(t, "81-100", p.PageRange())

	var numbers []int
	for _, link := range p.Pages {
		numbers = append(numbers, link.Number)
	}
	assert.Equal(t, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}, numbers)
	assert.True(t, p.Pages[4].IsCurrent)
	assert.True(t, p.Pages[1].IsEllipsis)
}

func TestBuildPaginationClampsPage(t *testing.T) {
	p := BuildPagination(9, 30, 20, "/admin/pages", nil)
	assert.Equal(t, 2, p.CurrentPage)
	assert.False(t, p.HasNext)
	assert.Equal(t, "21-30", p.PageRange())
	assert.Equal(t, "/admin/pages?page=1", p.PrevURL())
	assert.True(t, p.ShouldShow())

	empty := BuildPagination(1, 0, 20, "/admin/pages", nil)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.ShouldShow())
	assert.Equal(t, "0", empty.PageRange())
}

func TestBuildPaginationWindowEdges(t *testing.T) {
	numbers := func(p Pagination) []int {
		var out []int
		for _, link := range p.Pages {
			out = append(out, link.Number)
		}
		return out
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5, 0, 10}, numbers(BuildPagination(1, 200, 20, "/admin/events", nil)))
	assert.Equal(t, []int{1, 0, 6, 7, 8, 9, 10}, numbers(BuildPagination(10, 200, 20, "/admin/events", nil)))
	assert.Equal(t, []int{1, 2, 3}, numbers(BuildPagination(2, 60, 20, "/admin/events", nil)))
}

func TestPageSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, PageSlice(items, 1, 2))
	assert.Equal(t, []int{5}, PageSlice(items, 3, 2))
	assert.Empty(t, PageSlice(items, 4, 2))
	assert.Empty(t, PageSlice(items, 0, 2))
	assert.Equal(t, items, PageSlice(items, 1, 0))
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
	}{
		{"", 1, 20},
		{"page=3&per_page=50", 3, 50},
		{"page=0&per_page=500", 1, 20},
		{"page=x&per_page=-1", 1, 20},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/v1/public/pages?"+tt.query, nil)
		require.Equal(t, tt.page, ParsePageParam(r), tt.query)
		require.Equal(t, tt.perPage, ParsePerPageParam(r, 20, 100), tt.query)
	}
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 1, CalculateTotalPages(0, 20))
	assert.Equal(t, 1, CalculateTotalPages(20, 20))
	assert.Equal(t, 2, CalculateTotalPages(21, 20))
	assert.Equal(t, 1, CalculateTotalPages(50, 0))
}
