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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/odir-go/internal/billing"
	"github.com/olegiv/odir-go/internal/cache"
	"github.com/olegiv/odir-go/internal/config"
	"github.com/olegiv/odir-go/internal/geoip"
	"github.com/olegiv/odir-go/internal/handler"
	"github.com/olegiv/odir-go/internal/handler/api"
	"github.com/olegiv/odir-go/internal/logging"
	"github.com/olegiv/odir-go/internal/luma"
	"github.com/olegiv/odir-go/internal/mailer"
	"github.com/olegiv/odir-go/internal/middleware"
	"github.com/olegiv/odir-go/internal/scheduler"
	"github.com/olegiv/odir-go/internal/service"
	"github.com/olegiv/odir-go/internal/session"
	"github.com/olegiv/odir-go/internal/storage"
	"github.com/olegiv/odir-go/internal/store"
	"github.com/olegiv/odir-go/internal/syncer"
	"github.com/olegiv/odir-go/internal/unsplash"
	"github.com/olegiv/odir-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oDir - Community Directory Server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nConfiguration is read from ODIR_* environment variables\n")
		_, _ = fmt.Fprintf(os.Stderr, "(optionally from a .env file in the working directory).\n")
	}
	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("oDir %s (commit %s, built %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

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

	// Upgrade logger so WARN and ERROR records land in the audit trail
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewAuditLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if err := store.SeedDemo(ctx, db); err != nil {
		return fmt.Errorf("seeding demo content: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	cacheConfig := cache.DefaultConfig()
	cacheConfig.Prefix = cfg.CachePrefix
	cacheConfig.DefaultTTL = time.Duration(cfg.CacheTTL) * time.Second
	cacheConfig.MaxEntries = cfg.CacheMaxSize
	if cfg.UseRedisCache() {
		cacheConfig.Backend = cache.BackendRedis
		cacheConfig.RedisURL = cfg.RedisURL
	}
	cacheManager := cache.NewManager(store.New(db), cache.New(cacheConfig), cacheConfig.DefaultTTL)
	defer func() {
		if err := cacheManager.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if err := cacheManager.Preload(ctx); err != nil {
		slog.Warn("failed to preload caches", "error", err)
	}

	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip unavailable, audit events will not carry country codes", "error", err)
	}
	defer func() {
		if err := geo.Close(); err != nil {
			slog.Error("error closing geoip database", "error", err)
		}
	}()

	auditService := service.NewAuditService(db, geo)

	var objects *storage.ObjectStore
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		objects, err = storage.New(ctx, storage.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			slog.Warn("object storage unavailable, media uploads disabled", "error", err)
			objects = nil
		} else {
			slog.Info("object storage ready", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		}
	} else {
		slog.Warn("object storage not configured, media uploads disabled")
	}

	lumaClient := luma.New(cfg.LumaAPIURL, cfg.LumaAPIKey)
	billingClient := billing.New(billing.Config{
		SecretKey: cfg.StripeSecretKey,
		PriceID:   cfg.StripePriceID,
		BaseURL:   cfg.BaseURL,
	})
	unsplashClient := unsplash.New(cfg.UnsplashAccessKey)
	mailClient := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		BaseURL:  cfg.BaseURL,
	})
	slog.Info("integrations configured",
		"luma", cfg.LumaEnabled(), "billing", cfg.BillingEnabled(),
		"unsplash", cfg.UnsplashEnabled(), "smtp", cfg.SMTPEnabled())

	syncRunner := syncer.NewRunner(store.New(db), cacheManager)
	syncRunner.Register(syncer.NewLumaSource(lumaClient))
	syncRunner.Register(syncer.NewLegacySource(cfg.LegacyDBDSN))

	retention := time.Duration(cfg.AuditRetentionDays) * 24 * time.Hour
	sched := scheduler.New(db, auditService, geo, cacheManager, retention, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	apiHandler := api.NewHandler(db, sessionManager, cacheManager, auditService,
		objects, billingClient, unsplashClient, mailClient, syncRunner)
	healthHandler := handler.NewHealthHandler(db, objects, &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	})

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig(
		[]byte(cfg.SessionSecret), cfg.CSRFTrustedOrigins, cfg.IsDevelopment()))
	apiLimiter := middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateLimit)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateLimit)
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadUser(sessionManager, db))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteNotFound(w, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimiter.Middleware())
		r.Use(csrfMiddleware)

		// The sync stream stays open for the whole import, so it is
		// mounted outside the request timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminWithAudit(auditService))
			r.Get("/admin/sync/sources", apiHandler.ListSyncSources)
			r.Post("/admin/sync", apiHandler.RunSync)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			// Public
			r.Get("/health", healthHandler.Health)
			r.Get("/health/live", healthHandler.Liveness)
			r.Get("/health/ready", healthHandler.Readiness)

			r.Get("/people", apiHandler.ListPeople)
			r.Get("/people/{slug}", apiHandler.GetPerson)
			r.Get("/companies", apiHandler.ListCompanies)
			r.Get("/companies/{slug}", apiHandler.GetCompany)
			r.Get("/events", apiHandler.ListEvents)
			r.Get("/events/{slug}", apiHandler.GetEvent)
			r.Get("/posts", apiHandler.ListPosts)
			r.Get("/posts/{slug}", apiHandler.GetPost)
			r.Get("/tags", apiHandler.ListTags)
			r.Get("/timeline", apiHandler.ListTimeline)
			r.Get("/media/file/{uuid}", apiHandler.ServeMediaFile)

			// Auth, with a tighter per-IP limit on credential endpoints
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware())
				r.Post("/auth/register", apiHandler.Register)
				r.Post("/auth/verify", apiHandler.Verify)
				r.Post("/auth/login", apiHandler.Login)
			})

			// Members
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth())
				r.Post("/auth/logout", apiHandler.Logout)
				r.Get("/auth/me", apiHandler.Me)

				r.Put("/people/{id}", apiHandler.UpdatePerson)
				r.Post("/companies/{id}/claim", apiHandler.ClaimCompany)

				r.Post("/media", apiHandler.UploadMedia)
				r.Get("/media", apiHandler.ListMedia)
				r.Get("/media/{uuid}", apiHandler.GetMedia)
				r.Delete("/media/{id}", apiHandler.DeleteMedia)

				r.Get("/images/search", apiHandler.SearchImages)

				r.Post("/billing/checkout", apiHandler.CreateCheckout)
				r.Get("/billing/session/{id}", apiHandler.GetBillingSession)
				r.Get("/billing/status", apiHandler.GetBillingStatus)
			})

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdminWithAudit(auditService))

				r.Delete("/people/{id}", apiHandler.DeletePerson)

				r.Post("/companies", apiHandler.CreateCompany)
				r.Put("/companies/{id}", apiHandler.UpdateCompany)
				r.Delete("/companies/{id}", apiHandler.DeleteCompany)

				r.Put("/events/{id}", apiHandler.UpdateEvent)
				r.Put("/events/{id}/speakers", apiHandler.ReplaceSpeakers)
				r.Put("/events/{id}/presentations", apiHandler.ReplacePresentations)
				r.Delete("/events/{id}", apiHandler.DeleteEvent)

				r.Post("/posts", apiHandler.CreatePost)
				r.Put("/posts/{id}", apiHandler.UpdatePost)
				r.Post("/posts/{id}/publish", apiHandler.PublishPost)
				r.Post("/posts/{id}/unpublish", apiHandler.UnpublishPost)
				r.Post("/posts/{id}/pin", apiHandler.PinPost)
				r.Post("/posts/{id}/unpin", apiHandler.UnpinPost)
				r.Delete("/posts/{id}", apiHandler.DeletePost)

				r.Post("/tags", apiHandler.CreateTag)
				r.Put("/tags/{id}", apiHandler.UpdateTag)
				r.Delete("/tags/{id}", apiHandler.DeleteTag)

				r.Post("/timeline", apiHandler.CreateTimelineEvent)
				r.Put("/timeline/{id}", apiHandler.UpdateTimelineEvent)
				r.Post("/timeline/reorder", apiHandler.ReorderTimeline)
				r.Delete("/timeline/{id}", apiHandler.DeleteTimelineEvent)

				r.Get("/roles", apiHandler.ListRoles)
				r.Get("/permissions", apiHandler.ListPermissions)
				r.Post("/roles/{id}/permissions", apiHandler.GrantRolePermission)
				r.Delete("/roles/{id}/permissions/{name}", apiHandler.RevokeRolePermission)
				r.Post("/users/{id}/roles", apiHandler.AssignUserRole)
				r.Delete("/users/{id}/roles/{roleID}", apiHandler.RemoveUserRole)

				r.Get("/admin/users", apiHandler.ListUsers)
				r.Get("/admin/users/{id}", apiHandler.GetUser)
				r.Put("/admin/users/{id}", apiHandler.UpdateUser)
				r.Delete("/admin/users/{id}", apiHandler.DeleteUser)
				r.Get("/admin/audit-events", apiHandler.ListAuditEvents)
				r.Get("/admin/settings", apiHandler.GetSettings)
				r.Put("/admin/settings", apiHandler.UpdateSettings)
				r.Post("/admin/cache/clear", apiHandler.ClearCache)
				r.Get("/admin/cache/stats", apiHandler.GetCacheStats)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// WriteTimeout stays off so the sync stream can outlive slow imports;
		// regular routes are bounded by the timeout middleware.
		WriteTimeout:   0,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
