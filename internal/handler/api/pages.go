// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/uikit"
)

// Page listing limits.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	page := uikit.ParsePageParam(r)
	perPage := uikit.ParsePerPageParam(r, defaultPerPage, maxPerPage)

	result, err := h.pages.ListPages(r.Context(), publishedOnly, perPage, (page-1)*perPage)
	if err != nil {
		h.writeServiceError(w, r, err, "Pages", "Failed to list pages")
		return
	}

	pages := result.Pages
	if pages == nil {
		pages = []model.Page{}
	}
	WriteSuccess(w, pages, &Meta{
		Total:   result.Total,
		Page:    page,
		PerPage: perPage,
		Pages:   uikit.CalculateTotalPages(int(result.Total), perPage),
	})
}

// ListPublicPages handles GET /public/pages. Only published pages are listed.
func (h *Handler) ListPublicPages(w http.ResponseWriter, r *http.Request) {
	h.listPages(w, r, true)
}

// ListPages handles GET /admin/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	h.listPages(w, r, false)
}

// GetPublicPageBySlug handles GET /public/pages/slug/{slug}.
func (h *Handler) GetPublicPageBySlug(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.GetPageBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to retrieve page")
		return
	}
	WriteSuccess(w, page, nil)
}

// GetPageBySlug handles GET /admin/pages/slug/{slug}.
func (h *Handler) GetPageBySlug(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.GetPageBySlug(r.Context(), chi.URLParam(r, "slug"), false)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to retrieve page")
		return
	}
	WriteSuccess(w, page, nil)
}

// GetPage handles GET /admin/pages/{pageId}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	page, err := h.pages.GetPage(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to retrieve page")
		return
	}
	WriteSuccess(w, page, nil)
}

// CreatePage handles POST /admin/pages.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var in model.CreatePageInput
	if !decodeBody(w, r, &in) {
		return
	}

	page, err := h.pages.CreatePage(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to create page")
		return
	}

	h.logger.Info("page created via API", "page_id", page.ID, "slug", page.Slug)
	WriteCreated(w, page)
}

// UpdatePage handles PATCH /admin/pages/{pageId}.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	var in model.UpdatePageInput
	if !decodeBody(w, r, &in) {
		return
	}

	page, err := h.pages.UpdatePage(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to update page")
		return
	}

	h.logger.Info("page updated via API", "page_id", page.ID)
	WriteSuccess(w, page, nil)
}

// DeletePage handles DELETE /admin/pages/{pageId}.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	if err := h.pages.DeletePage(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to delete page")
		return
	}

	h.logger.Info("page deleted via API", "page_id", id)
	w.WriteHeader(http.StatusNoContent)
}
