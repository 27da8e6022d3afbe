// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carepath/sitecms/internal/model"
)

// AdminAPIKeyName is the name of the key bootstrapped from configuration.
const AdminAPIKeyName = "Dashboard"

// SeedOptions controls what Seed creates.
type SeedOptions struct {
	// AdminAPIKey is the raw bearer key the dashboard uses. Empty skips it.
	AdminAPIKey string
	// Demo creates the demo marketing pages when the database has no pages.
	Demo bool
}

// Seed creates initial data in the database. It is safe to run on every start.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	queries := New(db)

	if opts.AdminAPIKey != "" {
		if err := seedAdminKey(ctx, queries, opts.AdminAPIKey); err != nil {
			return err
		}
	}

	if !opts.Demo {
		return nil
	}

	count, err := queries.CountPages(ctx)
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}
	if count > 0 {
		slog.Info("pages already exist, skipping demo seed", "count", count)
		return nil
	}

	for _, p := range demoPages() {
		if err := WithTx(ctx, db, func(q *Queries) error {
			return seedDemoPage(ctx, q, p)
		}); err != nil {
			return fmt.Errorf("seeding page %q: %w", p.slug, err)
		}
	}
	slog.Info("seeded demo pages", "count", len(demoPages()))
	return nil
}

func seedAdminKey(ctx context.Context, queries *Queries, rawKey string) error {
	hash := model.HashAPIKey(rawKey)
	_, err := queries.GetAPIKeyByHash(ctx, hash)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking admin api key: %w", err)
	}

	key, err := queries.CreateAPIKey(ctx, CreateAPIKeyParams{
		Name:        AdminAPIKeyName,
		KeyHash:     hash,
		KeyPrefix:   model.KeyPrefix(rawKey),
		Permissions: model.PermissionsToJSON(model.AllPermissions()),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating admin api key: %w", err)
	}

	slog.Info("created admin api key", "id", key.ID, "prefix", key.KeyPrefix)
	return nil
}

type demoPage struct {
	slug, title, description, pageType, category string
	published                                    bool
	nodes                                        []model.Content
	nodeTypes                                    []model.NodeType
}

func demoPages() []demoPage {
	return []demoPage{
		{
			slug:        "home",
			title:       "Care that comes to you",
			description: "Home health, therapy and care coordination.",
			pageType:    string(model.PageTypeMarketing),
			published:   true,
			nodeTypes: []model.NodeType{
				model.NodeTypeHeading,
				model.NodeTypeParagraph,
				model.NodeTypeList,
				model.NodeTypeButton,
			},
			nodes: []model.Content{
				{"text": "Care that comes to you", "level": "h1"},
				{"text": "Licensed clinicians providing skilled nursing and therapy in your home."},
				{"items": []any{"Skilled nursing", "Physical therapy", "Care coordination"}, "ordered": false},
				{"text": "Request a visit", "href": "/contact"},
			},
		},
		{
			slug:        "about",
			title:       "About us",
			description: "Who we are and how we work.",
			pageType:    string(model.PageTypeMarketing),
			published:   true,
			nodeTypes: []model.NodeType{
				model.NodeTypeHeading,
				model.NodeTypeRichText,
			},
			nodes: []model.Content{
				{"text": "About us", "level": "h1"},
				{"html": "<p>We have served our community since <strong>2009</strong>.</p>"},
			},
		},
		{
			slug:        "careers-registered-nurse",
			title:       "Registered Nurse",
			description: "Join our home health team.",
			pageType:    string(model.PageTypeJob),
			category:    "Nursing",
			published:   false,
			nodeTypes: []model.NodeType{
				model.NodeTypeHeading,
				model.NodeTypeParagraph,
			},
			nodes: []model.Content{
				{"text": "Registered Nurse", "level": "h1"},
				{"text": "Full time, day shift. Current state license required."},
			},
		},
	}
}

func seedDemoPage(ctx context.Context, q *Queries, p demoPage) error {
	now := time.Now().UTC()
	page, err := q.CreatePage(ctx, CreatePageParams{
		Slug:        p.slug,
		Title:       p.title,
		Description: p.description,
		PageType:    p.pageType,
		Category:    p.category,
		IsPublished: p.published,
		Metadata:    "{}",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("creating page: %w", err)
	}

	for i, content := range p.nodes {
		data, err := json.Marshal(content)
		if err != nil {
			return fmt.Errorf("encoding node content: %w", err)
		}
		if _, err := q.CreateContentNode(ctx, CreateContentNodeParams{
			ID:           uuid.NewString(),
			PageID:       page.ID,
			NodeType:     string(p.nodeTypes[i]),
			Content:      string(data),
			DisplayOrder: int64(i),
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("creating node: %w", err)
		}
	}

	_, err = q.CreatePageVersion(ctx, CreatePageVersionParams{
		PageID:          page.ID,
		VersionNumber:   1,
		Title:           page.Title,
		PageType:        page.PageType,
		Category:        page.Category,
		Description:     page.Description,
		MetaDescription: page.MetaDescription,
		FeaturedImage:   page.FeaturedImage,
		IsPublished:     page.IsPublished,
		ChangeType:      string(model.ChangeTypeCreate),
		ChangeSummary:   "Initial version",
		CreatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("creating version: %w", err)
	}
	return nil
}
