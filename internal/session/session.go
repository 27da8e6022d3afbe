// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the dashboard session manager.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// DefaultLifetime is used when Options.Lifetime is zero.
const DefaultLifetime = 24 * time.Hour

// Options configures the session manager.
type Options struct {
	Lifetime time.Duration
	// IsDev disables Secure cookies so the dashboard works over plain HTTP.
	IsDev bool
}

// New creates a new session manager backed by the sessions table of db.
func New(db *sql.DB, opts Options) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = opts.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = DefaultLifetime
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !opts.IsDev

	// The __Host- prefix requires Secure, Path=/ and no Domain.
	if !opts.IsDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}
