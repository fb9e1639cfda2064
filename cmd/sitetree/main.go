package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	sthttp "github.com/ideai-platform/sitetree/internal/adapter/http"
	stnats "github.com/ideai-platform/sitetree/internal/adapter/nats"
	"github.com/ideai-platform/sitetree/internal/adapter/natskv"
	stotel "github.com/ideai-platform/sitetree/internal/adapter/otel"
	"github.com/ideai-platform/sitetree/internal/adapter/postgres"
	"github.com/ideai-platform/sitetree/internal/adapter/ristretto"
	"github.com/ideai-platform/sitetree/internal/adapter/tiered"
	"github.com/ideai-platform/sitetree/internal/config"
	"github.com/ideai-platform/sitetree/internal/logger"
	"github.com/ideai-platform/sitetree/internal/middleware"
	"github.com/ideai-platform/sitetree/internal/port/queue"
	"github.com/ideai-platform/sitetree/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logClose := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logClose.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"subdirectory", cfg.Resolver.Subdirectory,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// Tracing (no-op when no endpoint is configured)
	shutdownTracer, err := stotel.InitTracer(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metrics, err := stotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS: JetStream queue plus the KV bucket backing the L2 cache
	jsQueue, err := stnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = jsQueue.Drain() }()

	l2, err := natskv.NewBucket(ctx, jsQueue.JetStream(), cfg.Cache.L2Bucket,
		cfg.Cache.ResolveTTL, cfg.Cache.PathTTL)
	if err != nil {
		return fmt.Errorf("nats kv: %w", err)
	}
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("ristretto: %w", err)
	}
	resolutionCache := tiered.New(l1, l2, cfg.Cache.ResolveTTL)

	// --- Services ---

	store := postgres.NewStore(pool)
	registry := service.NewRegistryService(store, resolutionCache, metrics, log,
		cfg.Cache.ResolveTTL, cfg.Cache.PathTTL)
	resolver := service.NewResolverService(store, registry, metrics, log, cfg.Resolver.Subdirectory)
	rewriter := service.NewURLRewriter(store, registry, metrics, log, cfg.Resolver.Subdirectory)
	canonical := service.NewCanonicalGuard(rewriter, log)
	frontPage := service.NewFrontPageService(store, registry, log)
	router := service.NewRouter(resolver, rewriter, canonical, frontPage)

	provision := service.NewProvisionService(store, registry, jsQueue, log, cfg.Resolver.MaxDepth)
	homepage := service.NewHomepageService(store, jsQueue, log)

	cancelHomepage, err := homepage.StartSubscriber(ctx)
	if err != nil {
		return fmt.Errorf("homepage subscriber: %w", err)
	}
	defer cancelHomepage()

	// --- HTTP ---

	handlers := &sthttp.Handlers{
		Store:     store,
		Registry:  registry,
		Provision: provision,
		Tree:      service.NewTreeService(store, registry),
		Sitemap:   service.NewSitemapService(store, registry),
		Router:    router,
	}

	r := chi.NewRouter()

	r.Use(sthttp.CORS(cfg.Server.CORSOrigin))
	r.Use(sthttp.SecurityHeaders)
	r.Use(sthttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(stotel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(pool, jsQueue))

	sthttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-gctx.Done():
			return nil
		}
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthHandler reports the status of the process and its dependencies.
func healthHandler(pool *pgxpool.Pool, q queue.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok", NATS: "ok"}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
		}
		if !q.IsConnected() {
			status.Status = "degraded"
			status.NATS = "disconnected"
		}

		w.Header().Set("Content-Type", "application/json")
		if status.Status == "ok" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}
