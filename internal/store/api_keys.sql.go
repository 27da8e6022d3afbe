// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const apiKeyColumns = `id, name, key_hash, key_prefix, permissions, last_used_at, expires_at, is_active, created_at`

func scanApiKey(row interface{ Scan(...any) error }) (ApiKey, error) {
	var k ApiKey
	err := row.Scan(
		&k.ID,
		&k.Name,
		&k.KeyHash,
		&k.KeyPrefix,
		&k.Permissions,
		&k.LastUsedAt,
		&k.ExpiresAt,
		&k.IsActive,
		&k.CreatedAt,
	)
	return k, err
}

const createAPIKey = `INSERT INTO api_keys (name, key_hash, key_prefix, permissions, expires_at, is_active, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + apiKeyColumns

// CreateAPIKeyParams holds the columns of a new API key.
type CreateAPIKeyParams struct {
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	ExpiresAt   sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
}

// CreateAPIKey stores a hashed API key.
func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error) {
	row := q.db.QueryRowContext(ctx, createAPIKey,
		arg.Name,
		arg.KeyHash,
		arg.KeyPrefix,
		arg.Permissions,
		arg.ExpiresAt,
		arg.IsActive,
		arg.CreatedAt,
	)
	return scanApiKey(row)
}

const getAPIKeyByHash = `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = ?`

// GetAPIKeyByHash looks a key up by the SHA-256 hash of its raw value.
func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (ApiKey, error) {
	return scanApiKey(q.db.QueryRowContext(ctx, getAPIKeyByHash, keyHash))
}

const updateAPIKeyLastUsed = `UPDATE api_keys SET last_used_at = ? WHERE id = ?`

// UpdateAPIKeyLastUsedParams records key usage.
type UpdateAPIKeyLastUsedParams struct {
	LastUsedAt sql.NullTime
	ID         int64
}

// UpdateAPIKeyLastUsed stamps the last time a key authenticated a request.
func (q *Queries) UpdateAPIKeyLastUsed(ctx context.Context, arg UpdateAPIKeyLastUsedParams) error {
	_, err := q.db.ExecContext(ctx, updateAPIKeyLastUsed, arg.LastUsedAt, arg.ID)
	return err
}

const countAPIKeys = `SELECT COUNT(*) FROM api_keys`

// CountAPIKeys counts stored keys.
func (q *Queries) CountAPIKeys(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAPIKeys).Scan(&count)
	return count, err
}
