// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/history"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
)

// VersionListData holds data for the version list template.
type VersionListData struct {
	Page    model.Page
	Entries []history.Entry
}

// VersionData holds data for the version detail template.
type VersionData struct {
	Page   model.Page
	Detail history.Detail
}

// ListVersions handles GET /admin/pages/{id}/versions.
func (h *DashboardHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var data VersionListData
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		data.Page, err = h.client.GetPage(ctx, pageID)
		return err
	})
	g.Go(func() error {
		var err error
		data.Entries, err = h.history.List(ctx, pageID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.apiFailure(w, r, err, adminPageURL(pageID), "Failed to load versions")
		return
	}

	h.render(w, r, http.StatusOK, "admin/versions", h.templateData(r, "Versions of "+data.Page.Title, data,
		"Pages", adminPagesURL, data.Page.Title, adminPageURL(pageID), "Versions", ""))
}

// ViewVersion handles GET /admin/pages/{id}/versions/{versionId}.
func (h *DashboardHandler) ViewVersion(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId")
	if !ok {
		return
	}

	var data VersionData
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		data.Page, err = h.client.GetPage(ctx, pageID)
		return err
	})
	g.Go(func() error {
		var err error
		data.Detail, err = h.history.View(ctx, pageID, versionID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.apiFailure(w, r, err, adminVersionsURL(pageID), "Failed to load version")
		return
	}

	label := fmt.Sprintf("Version %d", data.Detail.Version.VersionNumber)
	h.render(w, r, http.StatusOK, "admin/version", h.templateData(r, label+" of "+data.Page.Title, data,
		"Pages", adminPagesURL, data.Page.Title, adminPageURL(pageID), "Versions", adminVersionsURL(pageID), label, ""))
}

// ConfirmRestore handles GET /admin/pages/{id}/versions/{versionId}/restore.
func (h *DashboardHandler) ConfirmRestore(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId")
	if !ok {
		return
	}

	detail, err := h.history.View(r.Context(), pageID, versionID)
	if err != nil {
		h.apiFailure(w, r, err, adminVersionsURL(pageID), "Failed to load version")
		return
	}
	if detail.IsCurrent {
		flashError(w, r, h.notifier, adminVersionsURL(pageID), history.MsgAlreadyCurrent)
		return
	}

	data := ConfirmData{
		Prompt:    notify.PromptRestoreVersion,
		Action:    r.URL.Path,
		CancelURL: adminVersionsURL(pageID),
		Submit:    fmt.Sprintf("Restore version %d", detail.Version.VersionNumber),
	}
	h.render(w, r, http.StatusOK, "admin/confirm", h.templateData(r, "Restore version", data,
		"Pages", adminPagesURL, "Versions", adminVersionsURL(pageID), "Restore", ""))
}

// RestoreVersion handles POST /admin/pages/{id}/versions/{versionId}/restore.
func (h *DashboardHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionId")
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.notifier, adminVersionsURL(pageID)) {
		return
	}

	_, err := h.history.Restore(r.Context(), pageID, versionID, confirmer(r))
	switch {
	case cmsclient.IsAuthError(err):
		h.onAuthFailure(w, r, err)
	case errors.Is(err, cmsclient.ErrNotFound):
		h.notFound(w, r)
	default:
		// Success, a declined prompt and failures all return to the list;
		// Restore has queued the matching notification.
		http.Redirect(w, r, adminVersionsURL(pageID), http.StatusSeeOther)
	}
}
