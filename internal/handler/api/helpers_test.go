// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/service"
	"github.com/carepath/sitecms/internal/testutil"
	"github.com/carepath/sitecms/internal/version"
)

// testEnv is a migrated database behind the full /api/v1 router.
type testEnv struct {
	t        *testing.T
	db       *sql.DB
	pages    *service.PageService
	router   http.Handler
	readKey  string
	writeKey string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })

	pages := service.NewPageService(db, mem, testutil.TestLoggerSilent())
	h := NewHandler(pages, testutil.TestLoggerSilent(), version.Info{Version: "v1.2.3", GitCommit: "abc1234"})
	limits := RateLimits{GlobalRPS: 1000, GlobalBurst: 1000, KeyRPS: 1000, KeyBurst: 1000}

	return &testEnv{
		t:        t,
		db:       db,
		pages:    pages,
		router:   http.StripPrefix("/api/v1", h.Routes(db, limits)),
		readKey:  testutil.CreateAPIKey(t, db, "reader", model.PermissionPagesRead),
		writeKey: testutil.CreateAPIKey(t, db, "writer", model.PermissionPagesRead, model.PermissionPagesWrite),
	}
}

// do sends a request through the router. An empty key sends no
// Authorization header.
func (e *testEnv) do(method, path, key, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createPage(title string, published bool) model.Page {
	e.t.Helper()
	p, err := e.pages.CreatePage(context.Background(), model.CreatePageInput{Title: title, IsPublished: published})
	require.NoError(e.t, err)
	return p
}

func (e *testEnv) createNode(pageID int64, nodeType model.NodeType, content model.Content, hidden bool) model.ContentNode {
	e.t.Helper()
	n, err := e.pages.CreateNode(context.Background(), model.CreateNodeInput{
		PageID:   pageID,
		NodeType: nodeType,
		Content:  content,
		Hidden:   hidden,
	})
	require.NoError(e.t, err)
	return n
}

type dataResponse[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta"`
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) (T, *Meta) {
	t.Helper()
	var resp dataResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Data, resp.Meta
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error
}
