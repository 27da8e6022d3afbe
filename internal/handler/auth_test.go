// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/testutil"
)

func TestDashboard_RequiresSignIn(t *testing.T) {
	app := newTestApp(t)

	res := app.get("/admin/pages")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/admin/login", res.location)

	res = app.get("/admin/login")
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `name="api_key"`)
	assert.NotContains(t, res.body, "admin-header")
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	res := app.post("/admin/login", url.Values{"api_key": {app.writeKey}})
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, adminPagesURL, res.location)

	page := app.follow(res)
	require.Equal(t, http.StatusOK, page.status)
	assert.Contains(t, page.body, "Signed in as Web team")
	assert.Contains(t, page.body, `<span class="key-name">Web team</span>`)

	// The flash is shown once.
	assert.NotContains(t, app.get("/admin/pages").body, "Signed in as")

	// A signed-in editor skips the form.
	res = app.get("/admin/login")
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, adminPagesURL, res.location)

	events, err := app.events.ListEvents(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, model.EventCategoryAuth, events[0].Category)
	assert.Equal(t, "Dashboard sign-in", events[0].Message)
}

func TestLogin_Rejected(t *testing.T) {
	app := newTestApp(t)
	noPerms := testutil.CreateAPIKey(t, app.db, "Analytics")

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "   ", MsgKeyRequired},
		{"unknown", "sk_not_a_real_key_0123456789abcdef", MsgInvalidKey},
		{"no page permissions", noPerms, MsgNoPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := app.post("/admin/login", url.Values{"api_key": {tt.key}})
			require.Equal(t, http.StatusSeeOther, res.status)
			assert.Equal(t, "/admin/login", res.location)

			form := app.follow(res)
			assert.Contains(t, form.body, tt.want)
			assert.Equal(t, http.StatusSeeOther, app.get("/admin/pages").status, "still signed out")
		})
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login(app.writeKey)

	res := app.post("/admin/logout", nil)
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/admin/login", res.location)
	assert.Contains(t, app.follow(res).body, MsgSignedOut)

	assert.Equal(t, http.StatusSeeOther, app.get("/admin/pages").status)
}

func TestDashboard_RevokedKeyEndsSession(t *testing.T) {
	app := newTestApp(t)
	app.login(app.writeKey)

	_, err := app.db.Exec("UPDATE api_keys SET is_active = 0")
	require.NoError(t, err)

	res := app.get("/admin/pages")
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Contains(t, res.body, MsgSessionExpired)
	assert.Contains(t, res.body, `name="api_key"`)

	assert.Equal(t, http.StatusSeeOther, app.get("/admin/pages").status, "key dropped from session")
}

func TestDashboard_ReadOnlyKeyCannotWrite(t *testing.T) {
	app := newTestApp(t)
	app.login(app.readKey)

	res := app.get("/admin/pages")
	require.Equal(t, http.StatusOK, res.status)

	res = app.post("/admin/pages", url.Values{"title": {"Telehealth Visits"}})
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, adminPagesURL, res.location)
	assert.Contains(t, app.follow(res).body, MsgForbidden)

	// The session survives a 403.
	assert.Equal(t, http.StatusOK, app.get("/admin/pages").status)
}
