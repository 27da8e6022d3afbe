// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the CMS business logic: pages, their content
// nodes and their version history.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
	"github.com/carepath/sitecms/internal/util"
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxMetaDescription   = 300
	MaxCategoryLength    = 100
	MaxSummaryLength     = 500
)

// NodeCacheTTL is how long public node listings stay cached.
const NodeCacheTTL = 5 * time.Minute

// PageService manages pages, content nodes and page versions.
type PageService struct {
	db        *sql.DB
	queries   *store.Queries
	nodeCache *cache.TypedCache[[]model.ContentNode]
	logger    *slog.Logger
	now       func() time.Time
}

// NewPageService creates a PageService. With a nil cacher public node
// listings are read straight from the database.
func NewPageService(db *sql.DB, cacher cache.Cacher, logger *slog.Logger) *PageService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PageService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if cacher != nil {
		s.nodeCache = cache.NewTypedCache[[]model.ContentNode](cacher, NodeCacheTTL)
	}
	return s
}

// ListPagesResult is one page of a page listing.
type ListPagesResult struct {
	Pages []model.Page
	Total int64
}

// ListPages lists live pages, newest first. publishedOnly restricts the
// listing to what visitors may see.
func (s *PageService) ListPages(ctx context.Context, publishedOnly bool, limit, offset int) (ListPagesResult, error) {
	params := store.ListPagesParams{Limit: int64(limit), Offset: int64(offset)}

	var (
		rows  []store.Page
		total int64
		err   error
	)
	if publishedOnly {
		rows, err = s.queries.ListPublishedPages(ctx, params)
		if err == nil {
			total, err = s.queries.CountPublishedPages(ctx)
		}
	} else {
		rows, err = s.queries.ListPages(ctx, params)
		if err == nil {
			total, err = s.queries.CountPages(ctx)
		}
	}
	if err != nil {
		return ListPagesResult{}, fmt.Errorf("listing pages: %w", err)
	}
	return ListPagesResult{Pages: pagesFromStore(rows), Total: total}, nil
}

// ListPublishedByType returns the newest published pages of one type.
func (s *PageService) ListPublishedByType(ctx context.Context, pageType model.PageType, limit int) ([]model.Page, error) {
	rows, err := s.queries.ListPublishedPagesByType(ctx, store.ListPublishedPagesByTypeParams{
		PageType: string(pageType),
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s pages: %w", pageType, err)
	}
	return pagesFromStore(rows), nil
}

// GetPage returns a live page.
func (s *PageService) GetPage(ctx context.Context, id int64) (model.Page, error) {
	p, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		return model.Page{}, notFound(err, fmt.Sprintf("page %d", id))
	}
	return pageFromStore(p), nil
}

// GetPublishedPage returns a live, published page.
func (s *PageService) GetPublishedPage(ctx context.Context, id int64) (model.Page, error) {
	p, err := s.GetPage(ctx, id)
	if err != nil {
		return model.Page{}, err
	}
	if !p.IsPublished {
		return model.Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// GetPageBySlug returns a live page by slug. publishedOnly hides drafts.
func (s *PageService) GetPageBySlug(ctx context.Context, slug string, publishedOnly bool) (model.Page, error) {
	var (
		p   store.Page
		err error
	)
	if publishedOnly {
		p, err = s.queries.GetPublishedPageBySlug(ctx, slug)
	} else {
		p, err = s.queries.GetPageBySlug(ctx, slug)
	}
	if err != nil {
		return model.Page{}, notFound(err, fmt.Sprintf("page %q", slug))
	}
	return pageFromStore(p), nil
}

// CreatePage stores a new page and records version 1.
func (s *PageService) CreatePage(ctx context.Context, in model.CreatePageInput) (model.Page, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Title)
	}
	if in.PageType == "" {
		in.PageType = model.PageTypeMarketing
	}

	fields := pageFields{
		Title:           in.Title,
		Slug:            in.Slug,
		Description:     in.Description,
		PageType:        in.PageType,
		Category:        in.Category,
		MetaDescription: in.MetaDescription,
		FeaturedImage:   in.FeaturedImage,
		ChangeSummary:   in.ChangeSummary,
	}
	if err := fields.validate(); err != nil {
		return model.Page{}, err
	}
	metadata, err := encodeMap(in.Metadata)
	if err != nil {
		return model.Page{}, &ValidationError{Fields: map[string]string{"metadata": "Metadata must be a JSON object"}}
	}

	summary := in.ChangeSummary
	if summary == "" {
		summary = "Initial version"
	}

	var created store.Page
	err = store.WithTx(ctx, s.db, func(q *store.Queries) error {
		exists, err := q.SlugExists(ctx, in.Slug)
		if err != nil {
			return fmt.Errorf("checking slug: %w", err)
		}
		if exists > 0 {
			return ErrSlugTaken
		}

		now := s.now()
		created, err = q.CreatePage(ctx, store.CreatePageParams{
			Slug:            in.Slug,
			Title:           in.Title,
			Description:     in.Description,
			PageType:        string(in.PageType),
			Category:        in.Category,
			MetaDescription: in.MetaDescription,
			FeaturedImage:   in.FeaturedImage,
			IsPublished:     in.IsPublished,
			Metadata:        metadata,
			ScheduledAt:     util.NullTimeFromPtr(in.ScheduledAt),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("creating page: %w", err)
		}
		return s.appendVersion(ctx, q, created, model.ChangeTypeCreate, summary)
	})
	if err != nil {
		return model.Page{}, err
	}

	s.logger.Info("page created", "page_id", created.ID, "slug", created.Slug)
	return pageFromStore(created), nil
}

// UpdatePage applies a partial update and records a version. Flipping the
// publish flag records publish or unpublish; anything else records update.
func (s *PageService) UpdatePage(ctx context.Context, id int64, in model.UpdatePageInput) (model.Page, error) {
	var (
		updated    store.Page
		changeType model.ChangeType
	)
	err := store.WithTx(ctx, s.db, func(q *store.Queries) error {
		current, err := q.GetPageByID(ctx, id)
		if err != nil {
			return notFound(err, fmt.Sprintf("page %d", id))
		}

		params := store.UpdatePageParams{
			Slug:            current.Slug,
			Title:           current.Title,
			Description:     current.Description,
			PageType:        current.PageType,
			Category:        current.Category,
			MetaDescription: current.MetaDescription,
			FeaturedImage:   current.FeaturedImage,
			IsPublished:     current.IsPublished,
			Metadata:        current.Metadata,
			ScheduledAt:     current.ScheduledAt,
			UpdatedAt:       s.now(),
			ID:              id,
		}
		applyString(&params.Title, in.Title, true)
		applyString(&params.Slug, in.Slug, true)
		applyString(&params.Description, in.Description, false)
		applyString(&params.Category, in.Category, false)
		applyString(&params.MetaDescription, in.MetaDescription, false)
		applyString(&params.FeaturedImage, in.FeaturedImage, true)
		if in.PageType != nil {
			params.PageType = string(*in.PageType)
		}
		if in.IsPublished != nil {
			params.IsPublished = *in.IsPublished
		}
		if in.Metadata != nil {
			if params.Metadata, err = encodeMap(in.Metadata); err != nil {
				return &ValidationError{Fields: map[string]string{"metadata": "Metadata must be a JSON object"}}
			}
		}
		switch {
		case in.ClearSchedule:
			params.ScheduledAt = sql.NullTime{}
		case in.ScheduledAt != nil:
			params.ScheduledAt = util.NullTimeFromPtr(in.ScheduledAt)
		}

		fields := pageFields{
			Title:           params.Title,
			Slug:            params.Slug,
			Description:     params.Description,
			PageType:        model.PageType(params.PageType),
			Category:        params.Category,
			MetaDescription: params.MetaDescription,
			FeaturedImage:   params.FeaturedImage,
			ChangeSummary:   in.ChangeSummary,
		}
		if err := fields.validate(); err != nil {
			return err
		}

		if params.Slug != current.Slug {
			exists, err := q.SlugExistsExcluding(ctx, store.SlugExistsExcludingParams{Slug: params.Slug, ID: id})
			if err != nil {
				return fmt.Errorf("checking slug: %w", err)
			}
			if exists > 0 {
				return ErrSlugTaken
			}
		}

		changeType = model.ChangeTypeUpdate
		switch {
		case params.IsPublished && !current.IsPublished:
			changeType = model.ChangeTypePublish
			params.ScheduledAt = sql.NullTime{}
		case !params.IsPublished && current.IsPublished:
			changeType = model.ChangeTypeUnpublish
		}

		updated, err = q.UpdatePage(ctx, params)
		if err != nil {
			return notFound(err, fmt.Sprintf("page %d", id))
		}

		summary := in.ChangeSummary
		if summary == "" {
			summary = defaultSummary(changeType)
		}
		return s.appendVersion(ctx, q, updated, changeType, summary)
	})
	if err != nil {
		return model.Page{}, err
	}

	s.invalidateNodes(ctx, id)
	s.logger.Info("page updated", "page_id", id, "change_type", changeType)
	return pageFromStore(updated), nil
}

// DeletePage soft-deletes a page. Its nodes and versions stay stored but
// are no longer reachable.
func (s *PageService) DeletePage(ctx context.Context, id int64) error {
	n, err := s.queries.SoftDeletePage(ctx, store.SoftDeletePageParams{DeletedAt: s.now(), ID: id})
	if err != nil {
		return fmt.Errorf("deleting page %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("page %d: %w", id, ErrNotFound)
	}
	s.invalidateNodes(ctx, id)
	s.logger.Info("page deleted", "page_id", id)
	return nil
}

// errNoLongerDue marks a scheduled page that was published, rescheduled
// or deleted after the due list was read.
var errNoLongerDue = errors.New("page no longer due")

// PublishScheduled publishes every draft whose scheduled time is at or
// before now and returns how many were published. Each page is re-read
// inside its transaction so edits made after the due list was read are
// kept. A failing page is logged and skipped.
func (s *PageService) PublishScheduled(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	due, err := s.queries.ListScheduledPagesForPublishing(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing scheduled pages: %w", err)
	}

	published := 0
	for _, p := range due {
		err := s.publishDue(ctx, p.ID, now)
		if errors.Is(err, errNoLongerDue) {
			s.logger.Debug("scheduled page skipped", "page_id", p.ID)
			continue
		}
		if err != nil {
			s.logger.Error("scheduled publish failed", "page_id", p.ID, "error", err)
			continue
		}
		s.invalidateNodes(ctx, p.ID)
		s.logger.Info("scheduled page published", "page_id", p.ID, "slug", p.Slug)
		published++
	}
	return published, nil
}

// publishDue publishes one page from its current row, returning
// errNoLongerDue when it is no longer a due draft.
func (s *PageService) publishDue(ctx context.Context, pageID int64, now time.Time) error {
	return store.WithTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetPageByID(ctx, pageID)
		if errors.Is(err, sql.ErrNoRows) {
			return errNoLongerDue
		}
		if err != nil {
			return err
		}
		if cur.IsPublished || !cur.ScheduledAt.Valid || cur.ScheduledAt.Time.After(now) {
			return errNoLongerDue
		}
		updated, err := q.UpdatePage(ctx, store.UpdatePageParams{
			Slug:            cur.Slug,
			Title:           cur.Title,
			Description:     cur.Description,
			PageType:        cur.PageType,
			Category:        cur.Category,
			MetaDescription: cur.MetaDescription,
			FeaturedImage:   cur.FeaturedImage,
			IsPublished:     true,
			Metadata:        cur.Metadata,
			UpdatedAt:       s.now(),
			ID:              cur.ID,
		})
		if err != nil {
			return err
		}
		return s.appendVersion(ctx, q, updated, model.ChangeTypePublish, "Scheduled publish")
	})
}

func (s *PageService) appendVersion(ctx context.Context, q *store.Queries, p store.Page, ct model.ChangeType, summary string) error {
	next, err := q.NextVersionNumber(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("numbering version: %w", err)
	}
	_, err = q.CreatePageVersion(ctx, store.CreatePageVersionParams{
		PageID:          p.ID,
		VersionNumber:   next,
		Title:           p.Title,
		PageType:        p.PageType,
		Category:        p.Category,
		Description:     p.Description,
		MetaDescription: p.MetaDescription,
		FeaturedImage:   p.FeaturedImage,
		IsPublished:     p.IsPublished,
		ChangeType:      string(ct),
		ChangeSummary:   summary,
		CreatedAt:       s.now(),
	})
	if err != nil {
		return fmt.Errorf("recording version %d: %w", next, err)
	}
	return nil
}

func defaultSummary(ct model.ChangeType) string {
	switch ct {
	case model.ChangeTypePublish:
		return "Published"
	case model.ChangeTypeUnpublish:
		return "Unpublished"
	default:
		return "Updated page"
	}
}

func applyString(dst *string, src *string, trim bool) {
	if src == nil {
		return
	}
	v := *src
	if trim {
		v = strings.TrimSpace(v)
	}
	*dst = v
}

// pageFields are the validated fields of a page write.
type pageFields struct {
	Title           string
	Slug            string
	Description     string
	PageType        model.PageType
	Category        string
	MetaDescription string
	FeaturedImage   string
	ChangeSummary   string
}

func (f pageFields) validate() error {
	v := validator{}
	v.check(f.Title != "", "title", "Title is required")
	v.check(len(f.Title) <= MaxTitleLength, "title", fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	v.check(f.Slug != "", "slug", "Slug is required")
	v.check(util.IsValidSlug(f.Slug), "slug", "Slug may only contain lowercase letters, numbers and hyphens")
	v.check(f.PageType.Valid(), "pageType", "Unknown page type")
	v.check(len(f.Description) <= MaxDescriptionLength, "description", "Description is too long")
	v.check(len(f.MetaDescription) <= MaxMetaDescription, "metaDescription", "Meta description is too long")
	v.check(len(f.Category) <= MaxCategoryLength, "category", "Category is too long")
	v.check(f.FeaturedImage == "" || util.IsSafeLinkURL(f.FeaturedImage), "featuredImage", "Featured image must be a relative path or http(s) URL")
	v.check(len(f.ChangeSummary) <= MaxSummaryLength, "changeSummary", "Change summary is too long")
	return v.err()
}

// IsNotFound reports whether err means the addressed entity is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
