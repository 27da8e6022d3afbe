// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/model"
)

// Query keys
func pageKey(pageID int64) string { return fmt.Sprintf("page:%d", pageID) }
func pagesKey(scope Scope) string { return "pages:" + string(scope) }
func versionsKey(pageID int64) string {
	return fmt.Sprintf("versions:%d", pageID)
}
func nodesKey(scope Scope, pageID int64) string {
	return fmt.Sprintf("nodes:%s:%d", scope, pageID)
}

// queryCache memoises read queries per key. A nil *queryCache is valid
// and caches nothing.
type queryCache struct {
	page     *cache.TypedCache[model.Page]
	pages    *cache.TypedCache[[]model.Page]
	nodes    *cache.TypedCache[[]model.ContentNode]
	versions *cache.TypedCache[[]model.PageVersion]
}

func newQueryCache(backend cache.Cacher, ttl time.Duration) *queryCache {
	return &queryCache{
		page:     cache.NewTypedCache[model.Page](backend, ttl),
		pages:    cache.NewTypedCache[[]model.Page](backend, ttl),
		nodes:    cache.NewTypedCache[[]model.ContentNode](backend, ttl),
		versions: cache.NewTypedCache[[]model.PageVersion](backend, ttl),
	}
}

// fetch runs fn through tc when caching is enabled.
func fetch[T any](ctx context.Context, tc *cache.TypedCache[T], key string, fn func() (T, error)) (T, error) {
	if tc == nil {
		return fn()
	}
	return tc.GetOrSet(ctx, key, fn)
}

// invalidatePages drops both scopes of the page listing.
func (q *queryCache) invalidatePages(ctx context.Context) {
	if q == nil {
		return
	}
	_ = q.pages.Delete(ctx, pagesKey(ScopePublic), pagesKey(ScopeAdmin))
}

// invalidateNodes drops both scopes of a page's node listing.
func (q *queryCache) invalidateNodes(ctx context.Context, pageID int64) {
	if q == nil {
		return
	}
	_ = q.nodes.Delete(ctx, nodesKey(ScopePublic, pageID), nodesKey(ScopeAdmin, pageID))
}

// invalidatePage drops everything derived from one page.
func (q *queryCache) invalidatePage(ctx context.Context, pageID int64) {
	if q == nil {
		return
	}
	_ = q.page.Delete(ctx, pageKey(pageID))
	_ = q.versions.Delete(ctx, versionsKey(pageID))
	q.invalidatePages(ctx)
	q.invalidateNodes(ctx, pageID)
}

func (q *queryCache) pageCache() *cache.TypedCache[model.Page] {
	if q == nil {
		return nil
	}
	return q.page
}

func (q *queryCache) pagesCache() *cache.TypedCache[[]model.Page] {
	if q == nil {
		return nil
	}
	return q.pages
}

func (q *queryCache) nodesCache() *cache.TypedCache[[]model.ContentNode] {
	if q == nil {
		return nil
	}
	return q.nodes
}

func (q *queryCache) versionsCache() *cache.TypedCache[[]model.PageVersion] {
	if q == nil {
		return nil
	}
	return q.versions
}
