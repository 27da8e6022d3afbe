// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/notify"
)

// flashAndRedirect queues a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, n notify.Notifier, url, message string, level notify.Level) {
	if level == notify.LevelError {
		n.Error(r.Context(), message)
	} else {
		n.Success(r.Context(), message)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError queues an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, n notify.Notifier, url, message string) {
	flashAndRedirect(w, r, n, url, message, notify.LevelError)
}

// flashSuccess queues a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, n notify.Notifier, url, message string) {
	flashAndRedirect(w, r, n, url, message, notify.LevelSuccess)
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, n notify.Notifier, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, n, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// pathID parses a positive integer URL parameter. Invalid values answer
// 404 because no resource can live there.
func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// confirmer turns the confirmation form into a notify.Confirmer. Only an
// explicit "yes" approves.
func confirmer(r *http.Request) notify.Confirmer {
	if r.PostForm.Get("confirm") == "yes" {
		return notify.Always
	}
	return notify.Never
}

// apiErrorText is the server message of err followed by its field
// details, or fallback when the server sent none.
func apiErrorText(err error, fallback string) string {
	msg := cmsclient.ErrorMessage(err, fallback)
	var apiErr *cmsclient.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Details) == 0 {
		return msg
	}
	parts := make([]string, 0, len(apiErr.Details))
	for _, field := range slices.Sorted(maps.Keys(apiErr.Details)) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, apiErr.Details[field]))
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

// safeReturn reduces target (a path or a Referer URL) to a local
// dashboard path, or returns fallback.
func safeReturn(target, fallback string) string {
	u, err := url.Parse(target)
	if err != nil || !strings.HasPrefix(u.Path, "/admin") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return u.RequestURI()
}

// detached keeps request values but drops the request deadline, for
// audit writes that should not be lost when a client disconnects.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
