// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package history presents a page's version log and restores earlier
// versions through the CMS API.
package history

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
)

// Errors
var (
	ErrCurrentVersion  = errors.New("history: version is already current")
	ErrVersionNotFound = errors.New("history: version not found")
)

// Notification texts
const (
	MsgRestoreFailed  = "Failed to restore version"
	MsgAlreadyCurrent = "This is already the current version"
)

// VersionAPI is the part of the CMS API used for history.
// *cmsclient.Client satisfies it.
type VersionAPI interface {
	ListVersions(ctx context.Context, pageID int64) ([]model.PageVersion, error)
	RestoreVersion(ctx context.Context, pageID, versionID int64) (model.Page, error)
}

// Entry is one row of the version list.
type Entry struct {
	Version    model.PageVersion
	IsCurrent  bool
	CanRestore bool
	Tag        Tag
}

// Field is one labelled value of a version snapshot.
type Field struct {
	Label string
	Value string
}

// Detail is the read-only view of a single version.
type Detail struct {
	Entry
	Fields []Field
}

// RestoreResult is the outcome of a successful restore.
type RestoreResult struct {
	Page    model.Page
	Entries []Entry
}

// BuildEntries orders versions newest first. The newest is current and
// every other version can be restored.
func BuildEntries(versions []model.PageVersion) []Entry {
	sorted := slices.Clone(versions)
	slices.SortStableFunc(sorted, func(a, b model.PageVersion) int {
		return cmp.Compare(b.VersionNumber, a.VersionNumber)
	})

	entries := make([]Entry, len(sorted))
	for i, v := range sorted {
		entries[i] = Entry{
			Version:    v,
			IsCurrent:  i == 0,
			CanRestore: i != 0,
			Tag:        TagFor(v.ChangeType),
		}
	}
	return entries
}

// NewDetail builds the snapshot fields of an entry.
func NewDetail(e Entry) Detail {
	v := e.Version
	published := "No"
	if v.IsPublished {
		published = "Yes"
	}
	return Detail{
		Entry: e,
		Fields: []Field{
			{Label: "Title", Value: v.Title},
			{Label: "Type", Value: string(v.PageType)},
			{Label: "Category", Value: v.Category},
			{Label: "Published", Value: published},
			{Label: "Description", Value: v.Description},
			{Label: "Meta description", Value: v.MetaDescription},
			{Label: "Featured image", Value: v.FeaturedImage},
		},
	}
}

// History lists, inspects and restores page versions.
type History struct {
	api      VersionAPI
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates a History. A nil notifier discards notifications.
func New(api VersionAPI, notifier notify.Notifier, logger *slog.Logger) *History {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{api: api, notifier: notifier, logger: logger}
}

// List returns the page's versions newest first.
func (h *History) List(ctx context.Context, pageID int64) ([]Entry, error) {
	versions, err := h.api.ListVersions(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("listing versions of page %d: %w", pageID, err)
	}
	return BuildEntries(versions), nil
}

// View returns the read-only detail of one version.
func (h *History) View(ctx context.Context, pageID, versionID int64) (Detail, error) {
	entries, err := h.List(ctx, pageID)
	if err != nil {
		return Detail{}, err
	}
	e, ok := findEntry(entries, versionID)
	if !ok {
		return Detail{}, fmt.Errorf("version %d of page %d: %w", versionID, pageID, ErrVersionNotFound)
	}
	return NewDetail(e), nil
}

// Restore makes an earlier version the live page after confirm approves.
// A declined prompt sends no request and returns (nil, nil). Nothing is
// treated as restored until the server confirms.
func (h *History) Restore(ctx context.Context, pageID, versionID int64, confirm notify.Confirmer) (*RestoreResult, error) {
	entries, err := h.List(ctx, pageID)
	if err != nil {
		h.notifyFailure(ctx, err)
		return nil, err
	}
	target, ok := findEntry(entries, versionID)
	switch {
	case !ok:
		err := fmt.Errorf("version %d of page %d: %w", versionID, pageID, ErrVersionNotFound)
		h.notifier.Error(ctx, MsgRestoreFailed)
		return nil, err
	case target.IsCurrent:
		h.notifier.Error(ctx, MsgAlreadyCurrent)
		return nil, ErrCurrentVersion
	}

	if confirm == nil || !confirm.Confirm(ctx, notify.PromptRestoreVersion) {
		return nil, nil
	}

	page, err := h.api.RestoreVersion(ctx, pageID, versionID)
	if err != nil {
		h.notifyFailure(ctx, err)
		return nil, err
	}
	h.logger.Info("page version restored", "page_id", pageID, "version", target.Version.VersionNumber)
	h.notifier.Success(ctx, fmt.Sprintf("Restored version %d", target.Version.VersionNumber))

	result := &RestoreResult{Page: page}
	result.Entries, err = h.List(ctx, pageID)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (h *History) notifyFailure(ctx context.Context, err error) {
	if cmsclient.IsAuthError(err) {
		return
	}
	h.notifier.Error(ctx, cmsclient.ErrorMessage(err, MsgRestoreFailed))
}

func findEntry(entries []Entry, versionID int64) (Entry, bool) {
	for _, e := range entries {
		if e.Version.ID == versionID {
			return e, true
		}
	}
	return Entry{}, false
}
