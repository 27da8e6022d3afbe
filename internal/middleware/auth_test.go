// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardAuth(t *testing.T) {
	sm := scs.New()

	var token string
	protected := DashboardAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		token, err = SessionToken{Sessions: sm}.Token(r.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(GetKeyName(sm, r)))
	}))

	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), SessionKeyAPIKey, "raw-key")
		sm.Put(r.Context(), SessionKeyKeyName, "editor")
	})
	mux.Handle("/admin", protected)
	handler := sm.LoadAndSave(mux)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/signin", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "editor", w.Body.String())
	assert.Equal(t, "raw-key", token)
}
