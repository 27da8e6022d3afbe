// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/service"
	"github.com/carepath/sitecms/internal/testutil"
	"github.com/carepath/sitecms/internal/version"
)

func TestEnvelopes(t *testing.T) {
	t.Run("success with meta", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteSuccess(w, []string{"a"}, &Meta{Total: 1, Page: 1, PerPage: 20, Pages: 1})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":["a"],"meta":{"total":1,"page":1,"perPage":20,"pages":1}}`, w.Body.String())
	})

	t.Run("created", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteCreated(w, map[string]int{"id": 4})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"data":{"id":4}}`, w.Body.String())
	})

	t.Run("validation", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteValidationError(w, map[string]string{"title": "Title is required"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		detail := decodeError(t, w)
		assert.Equal(t, "validation_error", detail.Code)
		assert.Equal(t, "Title is required", detail.Details["title"])
	})
}

func TestWriteServiceError(t *testing.T) {
	h := NewHandler(nil, testutil.TestLoggerSilent(), version.Info{})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &service.ValidationError{Fields: map[string]string{"nodeType": "Unknown node type"}}, http.StatusUnprocessableEntity, "validation_error"},
		{"slug taken", fmt.Errorf("creating: %w", service.ErrSlugTaken), http.StatusUnprocessableEntity, "validation_error"},
		{"not found", fmt.Errorf("page 3: %w", service.ErrNotFound), http.StatusNotFound, "not_found"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Page", "Failed")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestStatus(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	status, _ := decodeData[StatusResponse](t, w)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "v1", status.API)
	assert.Equal(t, "v1.2.3", status.Version)
}

func TestAuthInfo(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/admin/auth", e.readKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	info, _ := decodeData[AuthInfoResponse](t, w)
	assert.Equal(t, "reader", info.Name)
	assert.Equal(t, []string{model.PermissionPagesRead}, info.Permissions)
	assert.Len(t, info.KeyPrefix, model.APIKeyPrefixLength)
}

func TestAdminRoutesRequireKey(t *testing.T) {
	e := newTestEnv(t)
	page := e.createPage("About", true)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/pages"},
		{http.MethodGet, fmt.Sprintf("/admin/pages/%d/nodes", page.ID)},
		{http.MethodPost, fmt.Sprintf("/admin/pages/%d/nodes", page.ID)},
		{http.MethodPatch, "/admin/nodes/abc"},
		{http.MethodDelete, "/admin/nodes/abc"},
		{http.MethodGet, fmt.Sprintf("/admin/pages/%d/versions", page.ID)},
		{http.MethodPost, fmt.Sprintf("/admin/pages/%d/versions/1/restore", page.ID)},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := e.do(rt.method, rt.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decodeError(t, w).Code)
		})
	}
}

func TestWriteRoutesRequirePermission(t *testing.T) {
	e := newTestEnv(t)
	page := e.createPage("About", true)

	w := e.do(http.MethodPost, fmt.Sprintf("/admin/pages/%d/nodes", page.ID), e.readKey, `{"nodeType":"heading"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/admin/pages/%d/nodes", page.ID), e.readKey, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}
