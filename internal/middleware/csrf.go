// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// MsgCSRFRejected is the body of a rejected cross-site form post.
const MsgCSRFRejected = "This form was submitted from another site and has been blocked."

// CSRFConfig configures the dashboard's cross-site request protection.
// The check relies on Fetch metadata and Origin headers, so no token
// field is needed in the dashboard forms.
type CSRFConfig struct {
	// AuthKey is a 32-byte key. The dashboard passes its session secret.
	AuthKey []byte
	// TrustedOrigins are host:port values allowed to post cross-origin.
	TrustedOrigins []string
	// ErrorHandler answers rejected requests. Nil uses a plain 403.
	ErrorHandler http.Handler
}

// DefaultCSRFConfig returns the dashboard CSRF configuration. In
// development the localhost origins on port are trusted.
func DefaultCSRFConfig(authKey []byte, isDev bool, port int) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = []string{
			fmt.Sprintf("localhost:%d", port),
			fmt.Sprintf("127.0.0.1:%d", port),
		}
	}
	return cfg
}

// CSRF rejects cross-site state-changing requests to the dashboard.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	onFailure := cfg.ErrorHandler
	if onFailure == nil {
		onFailure = http.HandlerFunc(rejectCrossSite)
	}

	opts := []csrf.Option{csrf.ErrorHandler(onFailure)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func rejectCrossSite(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-site dashboard request blocked",
		"reason", reason,
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, MsgCSRFRejected, http.StatusForbidden)
}
