// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
)

// ListVersions returns the versions of a live page, newest first.
func (s *PageService) ListVersions(ctx context.Context, pageID int64) ([]model.PageVersion, error) {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListPageVersions(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("listing versions of page %d: %w", pageID, err)
	}
	return versionsFromStore(rows), nil
}

// GetVersion returns one version of a live page.
func (s *PageService) GetVersion(ctx context.Context, pageID, versionID int64) (model.PageVersion, error) {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return model.PageVersion{}, err
	}
	v, err := s.queries.GetPageVersion(ctx, store.GetPageVersionParams{ID: versionID, PageID: pageID})
	if err != nil {
		return model.PageVersion{}, notFound(err, fmt.Sprintf("version %d of page %d", versionID, pageID))
	}
	return versionFromStore(v), nil
}

// RestoreVersion copies a version's snapshot onto the live page and
// records a new restore version. Existing versions are left untouched.
func (s *PageService) RestoreVersion(ctx context.Context, pageID, versionID int64) (model.Page, error) {
	var restored store.Page
	var from int64
	err := store.WithTx(ctx, s.db, func(q *store.Queries) error {
		current, err := q.GetPageByID(ctx, pageID)
		if err != nil {
			return notFound(err, fmt.Sprintf("page %d", pageID))
		}
		v, err := q.GetPageVersion(ctx, store.GetPageVersionParams{ID: versionID, PageID: pageID})
		if err != nil {
			return notFound(err, fmt.Sprintf("version %d of page %d", versionID, pageID))
		}
		from = v.VersionNumber

		scheduled := current.ScheduledAt
		if v.IsPublished {
			scheduled.Valid = false
		}
		restored, err = q.UpdatePage(ctx, store.UpdatePageParams{
			Slug:            current.Slug,
			Title:           v.Title,
			Description:     v.Description,
			PageType:        v.PageType,
			Category:        v.Category,
			MetaDescription: v.MetaDescription,
			FeaturedImage:   v.FeaturedImage,
			IsPublished:     v.IsPublished,
			Metadata:        current.Metadata,
			ScheduledAt:     scheduled,
			UpdatedAt:       s.now(),
			ID:              pageID,
		})
		if err != nil {
			return fmt.Errorf("restoring page %d: %w", pageID, err)
		}
		return s.appendVersion(ctx, q, restored, model.ChangeTypeRestore, fmt.Sprintf("Restored from version %d", v.VersionNumber))
	})
	if err != nil {
		return model.Page{}, err
	}

	s.invalidateNodes(ctx, pageID)
	s.logger.Info("page version restored", "page_id", pageID, "from_version", from)
	return pageFromStore(restored), nil
}
