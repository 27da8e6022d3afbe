// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/model"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListNodesDecodesEnvelope(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/pages/7/nodes", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"id": "a", "pageId": 7, "nodeType": "heading", "content": map[string]any{"text": "Hi"}, "displayOrder": 1},
			},
		})
	}), WithTokenSource(StaticToken("secret-key")))

	nodes, err := c.ListNodes(context.Background(), ScopeAdmin, 7)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, model.NodeTypeHeading, nodes[0].NodeType)
	assert.Equal(t, "Hi", nodes[0].Content["text"])
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestPublicRequestsAreAnonymous(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	}), WithTokenSource(StaticToken("secret-key")))

	nodes, err := c.ListNodes(context.Background(), ScopePublic, 1)
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestDecodeWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 3, "slug": "about", "title": "About"})
	}))

	page, err := c.GetPage(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "about", page.Slug)
}

func TestErrorFormats(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
		code    string
	}{
		{
			name:    "structured",
			status:  http.StatusNotFound,
			body:    `{"error":{"code":"not_found","message":"Page not found"}}`,
			kind:    ErrNotFound,
			message: "Page not found",
			code:    "not_found",
		},
		{
			name:    "string error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"database is locked"}`,
			kind:    ErrServer,
			message: "database is locked",
		},
		{
			name:    "message only",
			status:  http.StatusForbidden,
			body:    `{"message":"Insufficient permissions"}`,
			kind:    ErrUnauthorized,
			message: "Insufficient permissions",
		},
		{
			name:   "not json",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			kind:   ErrServer,
		},
		{
			name:    "validation",
			status:  http.StatusUnprocessableEntity,
			body:    `{"error":{"code":"validation_error","message":"Validation failed","details":{"nodeType":"unknown node type"}}}`,
			kind:    ErrBadRequest,
			message: "Validation failed",
			code:    "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.GetPage(context.Background(), 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.code, apiErr.Code)

			want := tt.message
			if want == "" {
				want = "fallback"
			}
			assert.Equal(t, want, ErrorMessage(err, "fallback"))
		})
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(&APIError{StatusCode: http.StatusUnauthorized}))
	assert.True(t, IsAuthError(&APIError{StatusCode: http.StatusForbidden}))
	assert.False(t, IsAuthError(&APIError{StatusCode: http.StatusNotFound}))
	assert.False(t, IsAuthError(errors.New("other")))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL)
	_, err := c.ListVersions(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Failed to restore version", ErrorMessage(err, "Failed to restore version"))
}

func TestUpdateNodeSendsOnlyContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/admin/nodes/node-1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body, 1)
		assert.Contains(t, body, "content")

		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"id": "node-1", "nodeType": "paragraph", "content": body["content"],
		}})
	}))

	node, err := c.UpdateNodeContent(context.Background(), 1, "node-1", model.Content{"text": "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", node.Content["text"])
}

func TestDeleteNodeNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteNode(context.Background(), 1, "node-1"))
}

func TestQueryCacheAndInvalidation(t *testing.T) {
	var nodeGets, versionGets atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/public/pages/1/nodes", func(w http.ResponseWriter, r *http.Request) {
		nodeGets.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("GET /api/v1/admin/pages/1/versions", func(w http.ResponseWriter, r *http.Request) {
		versionGets.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("POST /api/v1/admin/pages/1/nodes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": "n", "pageId": 1}})
	})
	mux.HandleFunc("POST /api/v1/admin/pages/1/versions/2/restore", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": 1}})
	})

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })
	c := newTestClient(t, mux, WithCache(mem, time.Minute))
	ctx := context.Background()

	for range 3 {
		_, err := c.ListNodes(ctx, ScopePublic, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), nodeGets.Load(), "served from cache")

	order := 0
	_, err := c.CreateNode(ctx, model.CreateNodeInput{PageID: 1, NodeType: model.NodeTypeHeading, DisplayOrder: &order})
	require.NoError(t, err)

	_, err = c.ListNodes(ctx, ScopePublic, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), nodeGets.Load(), "node mutation invalidates both scopes")

	_, err = c.ListVersions(ctx, 1)
	require.NoError(t, err)
	_, err = c.RestoreVersion(ctx, 1, 2)
	require.NoError(t, err)
	_, err = c.ListVersions(ctx, 1)
	require.NoError(t, err)
	_, err = c.ListNodes(ctx, ScopePublic, 1)
	require.NoError(t, err)

	assert.Equal(t, int32(2), versionGets.Load(), "restore invalidates versions")
	assert.Equal(t, int32(3), nodeGets.Load(), "restore invalidates nodes")
}

func TestFailedMutationDoesNotInvalidate(t *testing.T) {
	var gets atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/admin/pages/1/versions", func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("POST /api/v1/admin/pages/1/versions/2/restore", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]any{"message": "boom"}})
	})

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })
	c := newTestClient(t, mux, WithCache(mem, time.Minute))
	ctx := context.Background()

	_, err := c.ListVersions(ctx, 1)
	require.NoError(t, err)
	_, err = c.RestoreVersion(ctx, 1, 2)
	require.Error(t, err)
	assert.Equal(t, "boom", ErrorMessage(err, "Failed to restore version"))
	_, err = c.ListVersions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gets.Load())
}
