// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/config"
	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/handler"
	"github.com/carepath/sitecms/internal/handler/api"
	"github.com/carepath/sitecms/internal/logging"
	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
	"github.com/carepath/sitecms/internal/render"
	"github.com/carepath/sitecms/internal/scheduler"
	"github.com/carepath/sitecms/internal/service"
	"github.com/carepath/sitecms/internal/session"
	"github.com/carepath/sitecms/internal/store"
	"github.com/carepath/sitecms/internal/version"
	"github.com/carepath/sitecms/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// dashboardCacheTTL bounds how stale dashboard API reads can get when
// pages change outside the dashboard (API clients, the scheduler).
const dashboardCacheTTL = 30 * time.Second

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "sitecms - marketing site content management\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_DB_PATH           SQLite database path (default: ./data/sitecms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_BASE_URL          Public site URL used in the feed, sitemap and canonical links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_SITE_NOINDEX      Block all crawlers in robots.txt (staging sites)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_ADMIN_API_KEY     Bootstrap API key with every permission (min 32 chars)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_DO_SEED           Create demo pages in an empty database\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITECMS_REDIS_URL         Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("sitecms %s\n", versionInfo)
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedOptions{AdminAPIKey: cfg.AdminAPIKey, Demo: cfg.DoSeed}); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	cacher := newCache(cfg)
	defer func() { _ = cacher.Close() }()

	sessionManager := session.New(db, session.Options{
		Lifetime: cfg.SessionLifetime,
		IsDev:    cfg.IsDevelopment(),
	})
	slog.Info("session manager initialized", "lifetime", cfg.SessionLifetime.String())

	templatesFS, err := web.Templates()
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Flashes:     notify.NewSessionNotifier(sessionManager),
		SiteName:    cfg.SiteName,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	pageService := service.NewPageService(db, cacher, logger)
	eventService := service.NewEventService(db)

	// Global edit-mode flag shared by every dashboard request
	mode := editmode.New()
	unsubscribe := mode.Subscribe(func(on bool) {
		slog.Info("edit mode changed", "edit_mode", on)
		msg := "Edit mode disabled"
		if on {
			msg = "Edit mode enabled"
		}
		if err := eventService.LogInfo(context.Background(), model.EventCategorySystem, msg, nil); err != nil {
			slog.Error("failed to log edit mode change", "error", err)
		}
	})
	defer unsubscribe()

	sched := scheduler.New(pageService, eventService, scheduler.Options{
		Retention: time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// The dashboard talks to the CMS API with the signed-in editor's key
	client := cmsclient.New(cfg.DashboardAPIURL(),
		cmsclient.WithTokenSource(middleware.SessionToken{Sessions: sessionManager}),
		cmsclient.WithCache(cacher, dashboardCacheTTL),
		cmsclient.WithLogger(logger),
	)

	apiHandler := api.NewHandler(pageService, logger, versionInfo)
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, eventService)
	dashboardHandler := handler.NewDashboardHandler(client, renderer, sessionManager, mode, nil, logger)
	eventsHandler := handler.NewEventsHandler(eventService, renderer, sessionManager, mode)
	siteHandler := handler.NewSiteHandler(pageService, renderer, handler.SiteConfig{
		Name:        cfg.SiteName,
		Description: cfg.SiteDescription,
		BaseURL:     cfg.SiteURL(),
		NoIndex:     cfg.SiteNoIndex,
	}, logger)
	healthHandler := handler.NewHealthHandler(db, cacher, sessionManager, versionInfo).WithJobs(sched)

	// Create router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// REST API: bearer keys, no session or CSRF
	r.Mount("/api/v1", apiHandler.Routes(db, api.RateLimits{
		GlobalRPS:   cfg.APIGlobalRPS,
		GlobalBurst: cfg.APIGlobalBurst,
		KeyRPS:      cfg.APIKeyRPS,
		KeyBurst:    cfg.APIKeyBurst,
	}))

	r.Get(web.StaticPrefix+"*", staticHandler())

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort))
	loginRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)

		// Health details are shown to signed-in editors only
		r.Get("/health", healthHandler.Health)
		r.Get("/health/live", healthHandler.Liveness)
		r.Get("/health/ready", healthHandler.Readiness)

		r.Route("/admin", func(r chi.Router) {
			r.Use(csrfMiddleware)

			r.Group(func(r chi.Router) {
				r.Use(loginRateLimiter.HTMLMiddleware())
				r.Get(handler.RouteLogin, authHandler.LoginForm)
				r.Post(handler.RouteLogin, authHandler.Login)
				r.Post(handler.RouteLogout, authHandler.Logout)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.DashboardAuth(sessionManager))
				dashboardHandler.Routes(r)
				r.Get(handler.RouteEvents, eventsHandler.List)
			})
		})

		siteHandler.Routes(r)
		r.NotFound(siteHandler.NotFound)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newCache builds the configured cache backend. An unreachable Redis
// falls back to the in-memory cache.
func newCache(cfg *config.Config) cache.Cacher {
	cacheCfg := cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheDefaultTTL(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}
	cacher, err := cache.NewCache(cacheCfg)
	if err != nil {
		slog.Warn("cache initialized", "backend", "memory", "note", "Redis unavailable, using fallback", "error", err)
		cacheCfg.RedisURL = ""
		cacher, _ = cache.NewCache(cacheCfg)
		return cacher
	}
	slog.Info("cache initialized", "backend", cacheCfg.Backend())
	return cacher
}

// staticHandler serves the embedded stylesheets. Directory listings are
// not exposed.
func staticHandler() http.HandlerFunc {
	files := web.StaticHandler()
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}
}
