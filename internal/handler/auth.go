// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
	"github.com/carepath/sitecms/internal/render"
	"github.com/carepath/sitecms/internal/service"
	"github.com/carepath/sitecms/internal/store"
)

// Sign-in messages
const (
	MsgKeyRequired    = "Enter your API key"
	MsgInvalidKey     = "Invalid API key"
	MsgNoPermission   = "This API key cannot manage pages"
	MsgSignedOut      = "You have been signed out"
	MsgSessionExpired = "Your session has expired. Please sign in again."
	MsgForbidden      = "Your API key lacks permission for this action"
)

// AuthHandler signs editors into the dashboard with an API key. The key
// is kept in the session and sent by the dashboard's CMS client.
type AuthHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	notifier       *notify.SessionNotifier
	eventService   *service.EventService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		notifier:       notify.NewSessionNotifier(sm),
		eventService:   events,
	}
}

// LoginForm handles GET /admin/login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetString(r.Context(), middleware.SessionKeyAPIKey) != "" {
		http.Redirect(w, r, adminPagesURL, http.StatusSeeOther)
		return
	}
	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{Title: "Sign in"}); err != nil {
		logAndInternalError(w, "failed to render login", "error", err)
	}
}

// Login handles POST /admin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.notifier, adminLoginURL) {
		return
	}

	rawKey := strings.TrimSpace(r.PostForm.Get("api_key"))
	if rawKey == "" {
		flashError(w, r, h.notifier, adminLoginURL, MsgKeyRequired)
		return
	}

	key, err := middleware.LookupAPIKey(r.Context(), h.queries, rawKey)
	if err != nil {
		if !middleware.IsKeyRejected(err) {
			logAndInternalError(w, "failed to validate API key", "error", err)
			return
		}
		slog.Debug("dashboard sign-in rejected", "reason", err.Error())
		h.logAuthEvent(r, model.EventLevelWarning, "Dashboard sign-in failed", map[string]any{"reason": err.Error()})
		flashError(w, r, h.notifier, adminLoginURL, MsgInvalidKey)
		return
	}

	if !key.HasAnyPermission(model.PermissionPagesRead, model.PermissionPagesWrite) {
		h.logAuthEvent(r, model.EventLevelWarning, "Dashboard sign-in without page permissions", map[string]any{"key_prefix": key.KeyPrefix})
		flashError(w, r, h.notifier, adminLoginURL, MsgNoPermission)
		return
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyAPIKey, rawKey)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyKeyName, key.Name)

	slog.Info("dashboard sign-in", "key_name", key.Name, "key_prefix", key.KeyPrefix)
	h.logAuthEvent(r, model.EventLevelInfo, "Dashboard sign-in", map[string]any{"key_name": key.Name, "key_prefix": key.KeyPrefix})

	flashSuccess(w, r, h.notifier, adminPagesURL, "Signed in as "+key.Name)
}

// Logout handles POST /admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	name := h.sessionManager.GetString(r.Context(), middleware.SessionKeyKeyName)
	if name != "" {
		h.logAuthEvent(r, model.EventLevelInfo, "Dashboard sign-out", map[string]any{"key_name": name})
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
	}
	h.sessionManager.Remove(r.Context(), middleware.SessionKeyAPIKey)
	h.sessionManager.Remove(r.Context(), middleware.SessionKeyKeyName)

	slog.Info("dashboard sign-out", "key_name", name)
	flashSuccess(w, r, h.notifier, adminLoginURL, MsgSignedOut)
}

func (h *AuthHandler) logAuthEvent(r *http.Request, level, message string, metadata map[string]any) {
	if h.eventService == nil {
		return
	}
	if err := h.eventService.LogEvent(detached(r.Context()), level, model.EventCategoryAuth, message, metadata); err != nil {
		slog.Error("failed to log auth event", "error", err)
	}
}

// AuthFailureHandler responds to a dashboard request whose API
// credentials were rejected by the CMS API.
type AuthFailureHandler func(w http.ResponseWriter, r *http.Request, err error)

// SessionExpired returns the default AuthFailureHandler. A 403 keeps the
// session and sends the editor back with an error. Any other rejection
// drops the stored key and answers 401 with the sign-in form.
func SessionExpired(sm *scs.SessionManager, renderer *render.Renderer) AuthFailureHandler {
	n := notify.NewSessionNotifier(sm)
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var apiErr *cmsclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
			back := safeReturn(r.Referer(), adminPagesURL)
			if r.Method == http.MethodGet {
				back = adminPagesURL
			}
			flashError(w, r, n, back, MsgForbidden)
			return
		}

		slog.Warn("dashboard API key rejected", "path", r.URL.Path, "error", err)
		if err := sm.RenewToken(r.Context()); err != nil {
			slog.Error("session renewal error", "error", err)
		}
		sm.Remove(r.Context(), middleware.SessionKeyAPIKey)
		sm.Remove(r.Context(), middleware.SessionKeyKeyName)

		data := render.TemplateData{
			Title:   "Sign in",
			Flashes: []notify.Message{{Level: notify.LevelError, Text: MsgSessionExpired}},
		}
		if err := renderer.RenderStatus(w, r, http.StatusUnauthorized, "auth/login", data); err != nil {
			logAndHTTPError(w, MsgSessionExpired, http.StatusUnauthorized, "failed to render login", "error", err)
		}
	}
}
