// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test fixtures: a migrated database,
// API keys and a quiet logger.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
)

// TestLoggerSilent logs errors only, so failing tests still show why.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestDB opens a migrated SQLite database in the test's temp directory.
// It is closed when the test ends.
func TestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "sitecms.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// CreateAPIKey stores an active key named name holding perms and returns
// the raw bearer token.
func CreateAPIKey(t testing.TB, db *sql.DB, name string, perms ...string) string {
	t.Helper()

	raw, prefix, err := model.GenerateAPIKey()
	if err != nil {
		t.Fatalf("generating api key: %v", err)
	}
	params := store.CreateAPIKeyParams{
		Name:        name,
		KeyHash:     model.HashAPIKey(raw),
		KeyPrefix:   prefix,
		Permissions: model.PermissionsToJSON(perms),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := store.New(db).CreateAPIKey(context.Background(), params); err != nil {
		t.Fatalf("storing api key %q: %v", name, err)
	}
	return raw
}
