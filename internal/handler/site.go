// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/content"
	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/pagecontent"
	"github.com/carepath/sitecms/internal/render"
	"github.com/carepath/sitecms/internal/seo"
	"github.com/carepath/sitecms/internal/service"
)

const (
	// HomeSlug is the slug of the page served at "/".
	HomeSlug = "home"
	// FeedItems is the number of blog pages in the RSS feed.
	FeedItems = 20
	// homeListLimit bounds the page list shown when no home page exists.
	homeListLimit = 50
)

// SiteConfig describes the public site.
type SiteConfig struct {
	Name        string
	Description string
	BaseURL     string
	// NoIndex blocks every crawler in robots.txt.
	NoIndex bool
}

func (c SiteConfig) seoInfo() seo.SiteInfo {
	return seo.SiteInfo{Name: c.Name, URL: c.BaseURL, Description: c.Description}
}

// SiteHandler serves the public marketing site. Pages always render in
// view mode with hidden content excluded.
type SiteHandler struct {
	pages      *service.PageService
	aggregator *pagecontent.Aggregator
	nodes      *content.Renderer
	renderer   *render.Renderer
	site       SiteConfig
	logger     *slog.Logger
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(pages *service.PageService, renderer *render.Renderer, site SiteConfig, logger *slog.Logger) *SiteHandler {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	return &SiteHandler{
		pages:      pages,
		aggregator: pagecontent.New(serviceNodes{pages: pages}, editmode.Static(false), nil, logger),
		nodes:      content.MustNewRenderer(content.WithLogger(logger)),
		renderer:   renderer,
		site:       site,
		logger:     logger,
	}
}

// serviceNodes is a pagecontent.NodeSource reading from the page
// service in-process.
type serviceNodes struct {
	pages *service.PageService
}

func (s serviceNodes) ListNodes(ctx context.Context, scope cmsclient.Scope, pageID int64) ([]model.ContentNode, error) {
	if scope == cmsclient.ScopeAdmin {
		return s.pages.ListNodes(ctx, pageID)
	}
	return s.pages.ListPublicNodes(ctx, pageID)
}

func (s serviceNodes) CreateNode(ctx context.Context, in model.CreateNodeInput) (model.ContentNode, error) {
	return s.pages.CreateNode(ctx, in)
}

// Routes registers the public site routes.
func (h *SiteHandler) Routes(r chi.Router) {
	r.Get(RouteRoot, h.Home)
	r.Get(RouteFeed, h.Feed)
	r.Get(RouteSitemap, h.Sitemap)
	r.Get(RouteRobots, h.Robots)
	r.Get(RouteParamSlug, h.Page)
}

// SitePageData holds data for the public page template.
type SitePageData struct {
	Page   model.Page
	Blocks []template.HTML
	Empty  bool
}

// SiteHomeData holds data for the page index shown when there is no
// home page.
type SiteHomeData struct {
	Pages []model.Page
}

// Home handles GET /. It serves the published "home" page, or an index
// of published pages when there is none.
func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.GetPageBySlug(r.Context(), HomeSlug, true)
	if err == nil {
		h.renderPage(w, r, page)
		return
	}
	if !errors.Is(err, service.ErrNotFound) {
		h.renderError(w, r, err)
		return
	}

	result, err := h.pages.ListPages(r.Context(), true, homeListLimit, 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "site/home", render.TemplateData{
		Title:       h.site.Name,
		Description: h.site.Description,
		Data:        SiteHomeData{Pages: result.Pages},
		Meta:        seo.HomeMeta(h.site.seoInfo()),
	})
}

// Page handles GET /{slug}.
func (h *SiteHandler) Page(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == HomeSlug {
		http.Redirect(w, r, RouteRoot, http.StatusMovedPermanently)
		return
	}

	page, err := h.pages.GetPageBySlug(r.Context(), slug, true)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPage(w, r, page)
}

func (h *SiteHandler) renderPage(w http.ResponseWriter, r *http.Request, page model.Page) {
	view, err := h.aggregator.Load(r.Context(), page.ID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	blocks := make([]template.HTML, len(view.Nodes))
	for i, node := range view.Nodes {
		blocks[i] = h.nodes.RenderNode(node, false)
	}

	description := page.MetaDescription
	if description == "" {
		description = page.Description
	}
	h.render(w, r, http.StatusOK, "site/page", render.TemplateData{
		Title:       page.Title,
		Description: description,
		Data:        SitePageData{Page: page, Blocks: blocks, Empty: view.Empty != pagecontent.EmptyNone},
		Meta:        seo.PageMeta(page, h.site.seoInfo(), HomeSlug),
	})
}

// NotFound renders the public 404 page.
func (h *SiteHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "site/not_found", render.TemplateData{Title: "Page not found"})
}

func (h *SiteHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	h.logger.Error("failed to serve page", "path", r.URL.Path, "error", err)
	h.render(w, r, http.StatusInternalServerError, "site/error", render.TemplateData{Title: "Something went wrong"})
}

func (h *SiteHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data render.TemplateData) {
	if err := h.renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// Feed handles GET /feed.xml, an RSS feed of published blog pages.
func (h *SiteHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.pages.ListPublishedByType(r.Context(), model.PageTypeBlog, FeedItems)
	if err != nil {
		logAndInternalError(w, "failed to list blog pages", "error", err)
		return
	}

	rss, err := h.buildFeed(posts).ToRss()
	if err != nil {
		logAndInternalError(w, "failed to build feed", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}

func (h *SiteHandler) buildFeed(posts []model.Page) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       h.site.Name,
		Link:        &feeds.Link{Href: h.site.BaseURL + "/"},
		Description: h.site.Description,
		Created:     time.Now().UTC(),
	}
	for _, p := range posts {
		link := h.site.BaseURL + "/" + p.Slug
		description := p.Description
		if description == "" {
			description = p.MetaDescription
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Description: description,
			Created:     p.CreatedAt,
			Updated:     p.UpdatedAt,
		})
		if p.UpdatedAt.After(feed.Updated) {
			feed.Updated = p.UpdatedAt
		}
	}
	return feed
}

// Sitemap handles GET /sitemap.xml.
func (h *SiteHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	result, err := h.pages.ListPages(r.Context(), true, seo.MaxSitemapURLs, 0)
	if err != nil {
		logAndInternalError(w, "failed to list pages for sitemap", "error", err)
		return
	}

	out, err := seo.GenerateSitemap(h.site.BaseURL, HomeSlug, result.Pages)
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

// Robots handles GET /robots.txt.
func (h *SiteHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.site.BaseURL,
		DisallowAll: h.site.NoIndex,
	})))
}
