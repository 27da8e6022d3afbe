// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for API key authentication,
// rate limiting, dashboard sessions and request timeouts.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAPIKey is the context key for the authenticated API key.
const ContextKeyAPIKey ContextKey = "api_key"

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// errKeyRejected carries the client-facing reason a key was refused.
type errKeyRejected string

func (e errKeyRejected) Error() string { return string(e) }

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errKeyRejected("Missing Authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errKeyRejected("Invalid Authorization header format. Use: Bearer <api_key>")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errKeyRejected("API key is empty")
	}
	return token, nil
}

// LookupAPIKey resolves a raw key to an active, unexpired API key.
// Unknown, inactive and expired keys return an errKeyRejected.
func LookupAPIKey(ctx context.Context, queries *store.Queries, rawKey string) (*model.APIKey, error) {
	row, err := queries.GetAPIKeyByHash(ctx, model.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errKeyRejected("Invalid API key")
		}
		return nil, err
	}

	key := &model.APIKey{
		ID:          row.ID,
		Name:        row.Name,
		KeyHash:     row.KeyHash,
		KeyPrefix:   row.KeyPrefix,
		Permissions: row.Permissions,
		LastUsedAt:  row.LastUsedAt,
		ExpiresAt:   row.ExpiresAt,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
	}
	if err := key.Usable(time.Now()); err != nil {
		return nil, errKeyRejected(err.Error())
	}
	return key, nil
}

// IsKeyRejected reports whether err means the presented key is not usable,
// as opposed to a lookup failure.
func IsKeyRejected(err error) bool {
	var rejected errKeyRejected
	return errors.As(err, &rejected)
}

// authenticate resolves the request's bearer key.
func authenticate(r *http.Request, queries *store.Queries) (*model.APIKey, error) {
	rawKey, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return LookupAPIKey(r.Context(), queries, rawKey)
}

// APIKeyAuth requires a usable bearer key and stores it in the request
// context. Refused keys get 401; lookup failures get 500.
func APIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := authenticate(r, queries)
			switch {
			case IsKeyRejected(err):
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
				return
			case err != nil:
				slog.Error("failed to validate API key", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to validate API key", nil)
				return
			}

			touchAPIKey(queries, apiKey.ID)
			next.ServeHTTP(w, r.WithContext(WithAPIKey(r.Context(), apiKey)))
		})
	}
}

// WithAPIKey returns ctx carrying the authenticated key.
func WithAPIKey(ctx context.Context, key *model.APIKey) context.Context {
	return context.WithValue(ctx, ContextKeyAPIKey, key)
}

// GetAPIKey retrieves the API key from the request context.
// Returns nil if no API key is in context.
func GetAPIKey(r *http.Request) *model.APIKey {
	apiKey, _ := r.Context().Value(ContextKeyAPIKey).(*model.APIKey)
	return apiKey
}

// touchAPIKey records the key's last use without delaying the request.
func touchAPIKey(queries *store.Queries, keyID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queries.UpdateAPIKeyLastUsed(ctx, store.UpdateAPIKeyLastUsedParams{
			LastUsedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
			ID:         keyID,
		}); err != nil {
			slog.Debug("failed to update API key last use", "key_id", keyID, "error", err)
		}
	}()
}

// RequirePermission creates middleware that requires a specific API permission.
// This should be used after APIKeyAuth middleware.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key required", nil)
				return
			}
			if !apiKey.HasPermission(permission) {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "API key lacks required permission: "+permission, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission creates middleware that requires any one of the specified permissions.
func RequireAnyPermission(requiredPerms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key required", nil)
				return
			}
			if !apiKey.HasAnyPermission(requiredPerms...) {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "API key lacks required permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
