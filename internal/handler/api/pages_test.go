// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/model"
)

func TestPublicPageListingHidesDrafts(t *testing.T) {
	e := newTestEnv(t)
	e.createPage("Home", true)
	e.createPage("Careers", true)
	e.createPage("Draft", false)

	w := e.do(http.MethodGet, "/public/pages", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	pages, meta := decodeData[[]model.Page](t, w)
	assert.Len(t, pages, 2)
	require.NotNil(t, meta)
	assert.Equal(t, int64(2), meta.Total)

	w = e.do(http.MethodGet, "/admin/pages?per_page=2", e.readKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	pages, meta = decodeData[[]model.Page](t, w)
	assert.Len(t, pages, 2)
	assert.Equal(t, int64(3), meta.Total)
	assert.Equal(t, 2, meta.Pages)
}

func TestGetPageBySlug(t *testing.T) {
	e := newTestEnv(t)
	e.createPage("Home Care", true)
	e.createPage("Hidden Draft", false)

	w := e.do(http.MethodGet, "/public/pages/slug/home-care", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	page, _ := decodeData[model.Page](t, w)
	assert.Equal(t, "Home Care", page.Title)

	w = e.do(http.MethodGet, "/public/pages/slug/hidden-draft", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/admin/pages/slug/hidden-draft", e.readKey, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePageAPI(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/admin/pages", e.writeKey, `{"title":"Memory Care","pageType":"service"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	page, _ := decodeData[model.Page](t, w)
	assert.Equal(t, "memory-care", page.Slug)
	assert.Equal(t, model.PageTypeService, page.PageType)

	w = e.do(http.MethodPost, "/admin/pages", e.writeKey, `{"title":"Memory Care"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "slug")

	w = e.do(http.MethodPost, "/admin/pages", e.writeKey, `{"title":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "title")

	w = e.do(http.MethodPost, "/admin/pages", e.writeKey, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/admin/pages", e.writeKey, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDeletePageAPI(t *testing.T) {
	e := newTestEnv(t)
	page := e.createPage("Hospice", false)
	path := fmt.Sprintf("/admin/pages/%d", page.ID)

	w := e.do(http.MethodPatch, path, e.writeKey, `{"isPublished":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated, _ := decodeData[model.Page](t, w)
	assert.True(t, updated.IsPublished)

	w = e.do(http.MethodGet, path+"/versions", e.readKey, "")
	versions, _ := decodeData[[]model.PageVersion](t, w)
	require.Len(t, versions, 2)
	assert.Equal(t, model.ChangeTypePublish, versions[0].ChangeType)

	w = e.do(http.MethodDelete, path, e.writeKey, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodGet, path, e.readKey, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPageIDValidation(t *testing.T) {
	e := newTestEnv(t)

	for _, id := range []string{"abc", "0", "-1"} {
		w := e.do(http.MethodGet, "/admin/pages/"+id, e.readKey, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
	w := e.do(http.MethodGet, "/admin/pages/999", e.readKey, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
