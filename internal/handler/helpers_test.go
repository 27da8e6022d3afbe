// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/handler/api"
	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
	"github.com/carepath/sitecms/internal/render"
	"github.com/carepath/sitecms/internal/service"
	"github.com/carepath/sitecms/internal/session"
	"github.com/carepath/sitecms/internal/testutil"
	"github.com/carepath/sitecms/internal/version"
	"github.com/carepath/sitecms/web"
)

// testApp is the dashboard and public site wired to a real CMS API
// server, with a cookie-keeping client that does not follow redirects.
type testApp struct {
	t        *testing.T
	db       *sql.DB
	pages    *service.PageService
	events   *service.EventService
	mode     *editmode.State
	server   *httptest.Server
	client   *http.Client
	writeKey string
	readKey  string
}

type response struct {
	status   int
	location string
	header   http.Header
	body     string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.TestDB(t)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })

	logger := testutil.TestLoggerSilent()
	info := version.Info{Version: "test"}
	pages := service.NewPageService(db, mem, logger)
	events := service.NewEventService(db)

	apiRouter := chi.NewRouter()
	apiRouter.Mount("/api/v1", api.NewHandler(pages, logger, info).Routes(db, api.RateLimits{
		GlobalRPS: 1000, GlobalBurst: 1000, KeyRPS: 1000, KeyBurst: 1000,
	}))
	apiServer := httptest.NewServer(apiRouter)
	t.Cleanup(apiServer.Close)

	sm := session.New(db, session.Options{IsDev: true})
	templatesFS, err := web.Templates()
	require.NoError(t, err)
	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Flashes:     notify.NewSessionNotifier(sm),
		SiteName:    "CarePath Health",
	})
	require.NoError(t, err)

	client := cmsclient.New(apiServer.URL+"/api/v1",
		cmsclient.WithTokenSource(middleware.SessionToken{Sessions: sm}),
		cmsclient.WithLogger(logger),
	)
	mode := editmode.New()

	authHandler := NewAuthHandler(db, renderer, sm, events)
	dashboardHandler := NewDashboardHandler(client, renderer, sm, mode, nil, logger)
	eventsHandler := NewEventsHandler(events, renderer, sm, mode)
	siteHandler := NewSiteHandler(pages, renderer, SiteConfig{
		Name:        "CarePath Health",
		Description: "Care close to home",
		BaseURL:     "https://www.carepath.example",
	}, logger)
	healthHandler := NewHealthHandler(db, mem, sm, info)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Get("/health", healthHandler.Health)
	r.Route("/admin", func(r chi.Router) {
		r.Get(RouteLogin, authHandler.LoginForm)
		r.Post(RouteLogin, authHandler.Login)
		r.Post(RouteLogout, authHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.DashboardAuth(sm))
			dashboardHandler.Routes(r)
			r.Get(RouteEvents, eventsHandler.List)
		})
	})
	siteHandler.Routes(r)
	r.NotFound(siteHandler.NotFound)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:      t,
		db:     db,
		pages:  pages,
		events: events,
		mode:   mode,
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		writeKey: testutil.CreateAPIKey(t, db, "Web team", model.PermissionPagesRead, model.PermissionPagesWrite),
		readKey:  testutil.CreateAPIKey(t, db, "Reviewer", model.PermissionPagesRead),
	}
}

func (a *testApp) do(req *http.Request) response {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return response{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		header:   resp.Header,
		body:     string(body),
	}
}

func (a *testApp) get(path string) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

func (a *testApp) post(path string, form url.Values) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

// postFrom sends a form with a Referer on the app's own origin.
func (a *testApp) postFrom(referer, path string, form url.Values) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", a.server.URL+referer)
	return a.do(req)
}

// follow requests the redirect target of res.
func (a *testApp) follow(res response) response {
	a.t.Helper()
	require.NotEmpty(a.t, res.location, "response is not a redirect (status %d)", res.status)
	u, err := url.Parse(res.location)
	require.NoError(a.t, err)
	return a.get(u.RequestURI())
}

// login signs in with key and consumes the welcome flash.
func (a *testApp) login(key string) {
	a.t.Helper()
	res := a.post("/admin/login", url.Values{"api_key": {key}})
	require.Equal(a.t, http.StatusSeeOther, res.status)
	require.Equal(a.t, adminPagesURL, res.location)
	require.Equal(a.t, http.StatusOK, a.follow(res).status)
}

func (a *testApp) createPage(title string, published bool) model.Page {
	a.t.Helper()
	page, err := a.pages.CreatePage(context.Background(), model.CreatePageInput{Title: title, IsPublished: published})
	require.NoError(a.t, err)
	return page
}

func (a *testApp) createNode(pageID int64, nodeType model.NodeType, content model.Content, hidden bool) model.ContentNode {
	a.t.Helper()
	node, err := a.pages.CreateNode(context.Background(), model.CreateNodeInput{
		PageID:   pageID,
		NodeType: nodeType,
		Content:  content,
		Hidden:   hidden,
	})
	require.NoError(a.t, err)
	return node
}
