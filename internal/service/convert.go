// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"encoding/json"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
	"github.com/carepath/sitecms/internal/util"
)

func pageFromStore(p store.Page) model.Page {
	return model.Page{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Description:     p.Description,
		PageType:        model.PageType(p.PageType),
		Category:        p.Category,
		MetaDescription: p.MetaDescription,
		FeaturedImage:   p.FeaturedImage,
		IsPublished:     p.IsPublished,
		Metadata:        decodeMap(p.Metadata),
		ScheduledAt:     util.PtrFromNullTime(p.ScheduledAt),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func pagesFromStore(rows []store.Page) []model.Page {
	out := make([]model.Page, len(rows))
	for i, p := range rows {
		out[i] = pageFromStore(p)
	}
	return out
}

func nodeFromStore(n store.ContentNode) model.ContentNode {
	var content model.Content
	if err := json.Unmarshal([]byte(n.Content), &content); err != nil || content == nil {
		// Keep the node listable; it renders through the raw fallback.
		content = model.Content{}
	}
	var meta map[string]any
	if n.Metadata.Valid {
		meta = decodeMap(n.Metadata.String)
	}
	return model.ContentNode{
		ID:           n.ID,
		PageID:       n.PageID,
		NodeType:     model.NodeType(n.NodeType),
		Content:      content,
		DisplayOrder: int(n.DisplayOrder),
		ParentNodeID: util.PtrFromNullString(n.ParentNodeID),
		Metadata:     meta,
		Hidden:       n.Hidden,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func nodesFromStore(rows []store.ContentNode) []model.ContentNode {
	out := make([]model.ContentNode, len(rows))
	for i, n := range rows {
		out[i] = nodeFromStore(n)
	}
	return out
}

func versionFromStore(v store.PageVersion) model.PageVersion {
	return model.PageVersion{
		ID:            v.ID,
		PageID:        v.PageID,
		VersionNumber: int(v.VersionNumber),
		ChangeType:    model.ChangeType(v.ChangeType),
		ChangeSummary: v.ChangeSummary,
		CreatedAt:     v.CreatedAt,
		PageSnapshot: model.PageSnapshot{
			Title:           v.Title,
			PageType:        model.PageType(v.PageType),
			Category:        v.Category,
			Description:     v.Description,
			MetaDescription: v.MetaDescription,
			FeaturedImage:   v.FeaturedImage,
			IsPublished:     v.IsPublished,
		},
	}
}

func versionsFromStore(rows []store.PageVersion) []model.PageVersion {
	out := make([]model.PageVersion, len(rows))
	for i, v := range rows {
		out[i] = versionFromStore(v)
	}
	return out
}

func decodeMap(s string) map[string]any {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

func encodeMap(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullableJSON(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	s, err := encodeMap(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}
