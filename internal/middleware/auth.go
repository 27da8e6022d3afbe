// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

// Session keys for dashboard data.
const (
	SessionKeyAPIKey  = "dashboard_api_key"
	SessionKeyKeyName = "dashboard_key_name"
)

// LoginPath is where unauthenticated dashboard requests are sent.
const LoginPath = "/admin/login"

// DashboardAuth creates middleware that requires a signed-in dashboard
// session. It redirects to the login page otherwise.
func DashboardAuth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetString(r.Context(), SessionKeyAPIKey) == "" {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken is a cmsclient.TokenSource reading the dashboard API key
// from the request's session.
type SessionToken struct {
	Sessions *scs.SessionManager
}

// Token returns the key stored at sign-in, or "" outside a session.
func (t SessionToken) Token(ctx context.Context) (string, error) {
	return t.Sessions.GetString(ctx, SessionKeyAPIKey), nil
}

// GetKeyName returns the name of the key the dashboard session signed in with.
func GetKeyName(sm *scs.SessionManager, r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyKeyName)
}
