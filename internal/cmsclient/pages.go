// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmsclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/carepath/sitecms/internal/model"
)

// ListPages lists pages. The public scope returns published pages only.
func (c *Client) ListPages(ctx context.Context, scope Scope) ([]model.Page, error) {
	return fetch(ctx, c.queries.pagesCache(), pagesKey(scope), func() ([]model.Page, error) {
		var pages []model.Page
		if err := c.do(ctx, http.MethodGet, "/"+string(scope)+"/pages?per_page=100", scope == ScopeAdmin, nil, &pages); err != nil {
			return nil, fmt.Errorf("listing pages: %w", err)
		}
		if pages == nil {
			pages = []model.Page{}
		}
		return pages, nil
	})
}

// GetPage returns a page by id (admin scope).
func (c *Client) GetPage(ctx context.Context, pageID int64) (model.Page, error) {
	return fetch(ctx, c.queries.pageCache(), pageKey(pageID), func() (model.Page, error) {
		var page model.Page
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/pages/%d", pageID), true, nil, &page); err != nil {
			return model.Page{}, fmt.Errorf("getting page %d: %w", pageID, err)
		}
		return page, nil
	})
}

// GetPageBySlug returns a page by slug. The public scope only finds
// published pages.
func (c *Client) GetPageBySlug(ctx context.Context, scope Scope, slug string) (model.Page, error) {
	var page model.Page
	path := fmt.Sprintf("/%s/pages/slug/%s", scope, url.PathEscape(slug))
	if err := c.do(ctx, http.MethodGet, path, scope == ScopeAdmin, nil, &page); err != nil {
		return model.Page{}, fmt.Errorf("getting page %q: %w", slug, err)
	}
	return page, nil
}

// CreatePage creates a page and its first version.
func (c *Client) CreatePage(ctx context.Context, in model.CreatePageInput) (model.Page, error) {
	var page model.Page
	if err := c.do(ctx, http.MethodPost, "/admin/pages", true, in, &page); err != nil {
		return model.Page{}, fmt.Errorf("creating page: %w", err)
	}
	c.queries.invalidatePages(ctx)
	return page, nil
}

// UpdatePage applies a partial update and records a version.
func (c *Client) UpdatePage(ctx context.Context, pageID int64, in model.UpdatePageInput) (model.Page, error) {
	var page model.Page
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/pages/%d", pageID), true, in, &page); err != nil {
		return model.Page{}, fmt.Errorf("updating page %d: %w", pageID, err)
	}
	c.queries.invalidatePage(ctx, pageID)
	return page, nil
}

// DeletePage soft-deletes a page.
func (c *Client) DeletePage(ctx context.Context, pageID int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/pages/%d", pageID), true, nil, nil); err != nil {
		return fmt.Errorf("deleting page %d: %w", pageID, err)
	}
	c.queries.invalidatePage(ctx, pageID)
	return nil
}
