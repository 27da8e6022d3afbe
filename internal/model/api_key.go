// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the CMS server,
// the HTTP client and the dashboard.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"time"
)

// Permissions an API key can carry. Dashboard sign-in needs at least one.
const (
	PermissionPagesRead  = "pages:read"
	PermissionPagesWrite = "pages:write"
)

// APIKeyBrand starts every generated key.
const APIKeyBrand = "scms_"

// APIKeyPrefixLength is how much of a raw key is stored in clear text to
// tell keys apart in logs and the key listing.
const APIKeyPrefixLength = len(APIKeyBrand) + 6

// Reasons a stored key cannot be used.
var (
	ErrKeyInactive = errors.New("API key is inactive")
	ErrKeyExpired  = errors.New("API key has expired")
)

// AllPermissions lists every permission, in the order they are stored.
func AllPermissions() []string {
	return []string{PermissionPagesRead, PermissionPagesWrite}
}

// APIKey is a bearer credential for the admin API. Only the SHA-256 of
// the raw key is stored.
type APIKey struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	KeyHash   string `json:"-"`
	KeyPrefix string `json:"key_prefix"`
	// Permissions is the stored JSON array, e.g. ["pages:read"].
	Permissions string       `json:"-"`
	LastUsedAt  sql.NullTime `json:"last_used_at,omitempty"`
	ExpiresAt   sql.NullTime `json:"expires_at,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
}

// GenerateAPIKey returns a new raw key and its display prefix. The raw
// key is shown once and never stored.
func GenerateAPIKey() (rawKey, prefix string, err error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}
	rawKey = APIKeyBrand + base64.RawURLEncoding.EncodeToString(secret)
	return rawKey, KeyPrefix(rawKey), nil
}

// KeyPrefix returns the display prefix of rawKey.
func KeyPrefix(rawKey string) string {
	return rawKey[:min(len(rawKey), APIKeyPrefixLength)]
}

// HashAPIKey returns the hex SHA-256 used to look keys up.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// GetPermissions decodes Permissions. Malformed or empty values grant
// nothing.
func (k *APIKey) GetPermissions() []string {
	var perms []string
	if err := json.Unmarshal([]byte(k.Permissions), &perms); err != nil || perms == nil {
		return []string{}
	}
	return perms
}

func (k *APIKey) HasPermission(perm string) bool {
	return slices.Contains(k.GetPermissions(), perm)
}

// HasAnyPermission reports whether the key holds at least one of perms.
func (k *APIKey) HasAnyPermission(perms ...string) bool {
	return slices.ContainsFunc(k.GetPermissions(), func(p string) bool {
		return slices.Contains(perms, p)
	})
}

// Usable returns ErrKeyInactive or ErrKeyExpired when the key must be
// refused at now.
func (k *APIKey) Usable(now time.Time) error {
	if !k.IsActive {
		return ErrKeyInactive
	}
	if k.ExpiresAt.Valid && now.After(k.ExpiresAt.Time) {
		return ErrKeyExpired
	}
	return nil
}

// PermissionsToJSON encodes perms for storage.
func PermissionsToJSON(perms []string) string {
	if len(perms) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(perms)
	return string(data)
}
