// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/carepath/sitecms/internal/model"
)

// ListVersions handles GET /admin/pages/{pageId}/versions.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	pageID, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	versions, err := h.pages.ListVersions(r.Context(), pageID)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to list versions")
		return
	}
	if versions == nil {
		versions = []model.PageVersion{}
	}
	WriteSuccess(w, versions, &Meta{Total: int64(len(versions))})
}

// GetVersion handles GET /admin/pages/{pageId}/versions/{versionId}.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	pageID, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}
	versionID, ok := requireIDParam(w, r, "versionId", "version")
	if !ok {
		return
	}

	version, err := h.pages.GetVersion(r.Context(), pageID, versionID)
	if err != nil {
		h.writeServiceError(w, r, err, "Version", "Failed to retrieve version")
		return
	}
	WriteSuccess(w, version, nil)
}

// RestoreVersion handles POST /admin/pages/{pageId}/versions/{versionId}/restore
// and returns the restored page.
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	pageID, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}
	versionID, ok := requireIDParam(w, r, "versionId", "version")
	if !ok {
		return
	}

	page, err := h.pages.RestoreVersion(r.Context(), pageID, versionID)
	if err != nil {
		h.writeServiceError(w, r, err, "Version", "Failed to restore version")
		return
	}

	h.logger.Info("page version restored via API", "page_id", pageID, "version_id", versionID)
	WriteSuccess(w, page, nil)
}
