// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/model"
)

// RateLimits configures API throttling.
type RateLimits struct {
	// GlobalRPS and GlobalBurst limit every client IP.
	GlobalRPS   float64
	GlobalBurst int
	// KeyRPS and KeyBurst limit each admin API key.
	KeyRPS   float64
	KeyBurst int
}

// DefaultRateLimits returns the limits used when none are configured.
func DefaultRateLimits() RateLimits {
	return RateLimits{GlobalRPS: 100, GlobalBurst: 200, KeyRPS: 10, KeyBurst: 20}
}

// Routes returns the /api/v1 router. db backs API key lookups.
func (h *Handler) Routes(db *sql.DB, limits RateLimits) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewGlobalRateLimiter(limits.GlobalRPS, limits.GlobalBurst).Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Get("/status", h.Status)

	r.Route("/public/pages", func(r chi.Router) {
		r.Get("/", h.ListPublicPages)
		r.Get("/slug/{slug}", h.GetPublicPageBySlug)
		r.Get("/{pageId}/nodes", h.ListPublicNodes)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(db))
		r.Use(middleware.APIRateLimit(limits.KeyRPS, limits.KeyBurst))

		r.Get("/auth", h.AuthInfo)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyPermission(model.PermissionPagesRead, model.PermissionPagesWrite))
			r.Get("/pages", h.ListPages)
			r.Get("/pages/slug/{slug}", h.GetPageBySlug)
			r.Get("/pages/{pageId}", h.GetPage)
			r.Get("/pages/{pageId}/nodes", h.ListNodes)
			r.Get("/pages/{pageId}/versions", h.ListVersions)
			r.Get("/pages/{pageId}/versions/{versionId}", h.GetVersion)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionPagesWrite))
			r.Post("/pages", h.CreatePage)
			r.Patch("/pages/{pageId}", h.UpdatePage)
			r.Delete("/pages/{pageId}", h.DeletePage)
			r.Post("/pages/{pageId}/nodes", h.CreateNode)
			r.Patch("/nodes/{nodeId}", h.UpdateNode)
			r.Delete("/nodes/{nodeId}", h.DeleteNode)
			r.Post("/pages/{pageId}/versions/{versionId}/restore", h.RestoreVersion)
		})
	})

	return r
}
