// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carepath/sitecms/internal/model"
)

func writeNodes(w http.ResponseWriter, nodes []model.ContentNode) {
	if nodes == nil {
		nodes = []model.ContentNode{}
	}
	WriteSuccess(w, nodes, &Meta{Total: int64(len(nodes))})
}

// ListPublicNodes handles GET /public/pages/{pageId}/nodes. Unpublished
// and deleted pages are reported as missing and hidden nodes are left out.
func (h *Handler) ListPublicNodes(w http.ResponseWriter, r *http.Request) {
	pageID, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	nodes, err := h.pages.ListPublicNodes(r.Context(), pageID)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to list content nodes")
		return
	}
	writeNodes(w, nodes)
}

// ListNodes handles GET /admin/pages/{pageId}/nodes, hidden nodes included.
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	pageID, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	nodes, err := h.pages.ListNodes(r.Context(), pageID)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to list content nodes")
		return
	}
	writeNodes(w, nodes)
}

// CreateNode handles POST /admin/pages/{pageId}/nodes. A pageId in the
// body must match the path.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	pageID, ok := requireIDParam(w, r, "pageId", "page")
	if !ok {
		return
	}

	var in model.CreateNodeInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.PageID != 0 && in.PageID != pageID {
		WriteBadRequest(w, "Page ID in body does not match the URL", map[string]string{"pageId": "must match the URL"})
		return
	}
	in.PageID = pageID

	node, err := h.pages.CreateNode(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Page", "Failed to create content node")
		return
	}
	WriteCreated(w, node)
}

func requireNodeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "nodeId"))
	if id == "" {
		WriteBadRequest(w, "Invalid node ID", nil)
		return "", false
	}
	return id, true
}

// UpdateNode handles PATCH /admin/nodes/{nodeId}. Only content is changed.
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := requireNodeID(w, r)
	if !ok {
		return
	}

	var in model.UpdateNodeInput
	if !decodeBody(w, r, &in) {
		return
	}

	node, err := h.pages.UpdateNodeContent(r.Context(), nodeID, in.Content)
	if err != nil {
		h.writeServiceError(w, r, err, "Content node", "Failed to update content node")
		return
	}
	WriteSuccess(w, node, nil)
}

// DeleteNode handles DELETE /admin/nodes/{nodeId}.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := requireNodeID(w, r)
	if !ok {
		return
	}

	if err := h.pages.DeleteNode(r.Context(), nodeID); err != nil {
		h.writeServiceError(w, r, err, "Content node", "Failed to delete content node")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
