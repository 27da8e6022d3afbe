// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmsclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carepath/sitecms/internal/model"
)

// ListVersions returns a page's versions as sent by the server.
func (c *Client) ListVersions(ctx context.Context, pageID int64) ([]model.PageVersion, error) {
	return fetch(ctx, c.queries.versionsCache(), versionsKey(pageID), func() ([]model.PageVersion, error) {
		var versions []model.PageVersion
		path := fmt.Sprintf("/admin/pages/%d/versions", pageID)
		if err := c.do(ctx, http.MethodGet, path, true, nil, &versions); err != nil {
			return nil, fmt.Errorf("listing versions of page %d: %w", pageID, err)
		}
		if versions == nil {
			versions = []model.PageVersion{}
		}
		return versions, nil
	})
}

// GetVersion returns one version of a page.
func (c *Client) GetVersion(ctx context.Context, pageID, versionID int64) (model.PageVersion, error) {
	var v model.PageVersion
	path := fmt.Sprintf("/admin/pages/%d/versions/%d", pageID, versionID)
	if err := c.do(ctx, http.MethodGet, path, true, nil, &v); err != nil {
		return model.PageVersion{}, fmt.Errorf("getting version %d of page %d: %w", versionID, pageID, err)
	}
	return v, nil
}

// RestoreVersion restores a page to an earlier version. The server
// records the restore as a new version. Page, page lists, versions and
// nodes of the page are invalidated.
func (c *Client) RestoreVersion(ctx context.Context, pageID, versionID int64) (model.Page, error) {
	var page model.Page
	path := fmt.Sprintf("/admin/pages/%d/versions/%d/restore", pageID, versionID)
	if err := c.do(ctx, http.MethodPost, path, true, nil, &page); err != nil {
		return model.Page{}, fmt.Errorf("restoring version %d of page %d: %w", versionID, pageID, err)
	}
	c.queries.invalidatePage(ctx, pageID)
	return page, nil
}
