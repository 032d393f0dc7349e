package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nexus/internal/analytics"
	"nexus/internal/cache"
	"nexus/internal/circuit"
	circuithandler "nexus/internal/circuit/handler"
	"nexus/internal/platform/config"
	"nexus/internal/platform/httpserver"
	"nexus/internal/platform/logger"
	platformmw "nexus/internal/platform/middleware"
	platformredis "nexus/internal/platform/redis"
	ratelimitmetrics "nexus/internal/ratelimit/metrics"
	ratelimitmw "nexus/internal/ratelimit/middleware"
	ratelimitservice "nexus/internal/ratelimit/service"
	"nexus/internal/ratelimit/store/bucket"
	"nexus/internal/registry/adapters"
	"nexus/internal/registry/debt"
	"nexus/internal/risk"
	searchhandler "nexus/internal/search/handler"
	searchmetrics "nexus/internal/search/metrics"
	searchservice "nexus/internal/search/service"
	"nexus/internal/search/store/history"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared cache tier is optional; the layered cache degrades to its local
	// tier when Redis is absent or unreachable.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, running with local cache only", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	localStore := cache.NewMemoryStore()
	localStore.StartSweeper(ctx, cfg.SweepInterval)

	cacheOpts := []cache.LayeredOption{
		cache.WithDefaultTTL(cfg.CacheTTL),
		cache.WithLogger(log),
		cache.WithMetrics(cache.NewMetrics()),
	}
	if redisClient != nil {
		sharedStore, err := cache.NewRedisStore(redisClient)
		if err != nil {
			return fmt.Errorf("build redis cache store: %w", err)
		}
		cacheOpts = append(cacheOpts, cache.WithSharedStore(sharedStore))
	}
	layered, err := cache.NewLayered(localStore, cacheOpts...)
	if err != nil {
		return fmt.Errorf("build cache: %w", err)
	}

	historyStore, closeDB, err := buildHistoryStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	breakers := circuit.NewRegistry(
		circuit.WithLogger(log),
		circuit.WithMetrics(circuit.NewMetrics()),
		circuit.WithBreakerDefaults(
			circuit.WithFailureThreshold(cfg.Breaker.FailureThreshold),
			circuit.WithRecoveryTimeout(cfg.Breaker.RecoveryTimeout),
		),
	)

	registryAdapters, debtLookup := buildRegistry(cfg, log)

	publisher, err := analytics.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return fmt.Errorf("build kafka publisher: %w", err)
	}
	if publisher != nil {
		defer publisher.Close()
	}

	searchOpts := []searchservice.Option{
		searchservice.WithDebtLookup(debtLookup),
		searchservice.WithLogger(log),
		searchservice.WithMetrics(searchmetrics.NewMetrics()),
		searchservice.WithCacheTTL(cfg.CacheTTL),
		searchservice.WithFetchTimeout(cfg.Adapter.Timeout),
	}
	if publisher != nil {
		searchOpts = append(searchOpts, searchservice.WithPublisher(publisher))
	}
	searchSvc, err := searchservice.New(
		registryAdapters,
		breakers,
		layered,
		risk.NewEngine(risk.WithLogger(log)),
		historyStore,
		searchOpts...,
	)
	if err != nil {
		return fmt.Errorf("build search service: %w", err)
	}

	limiterSvc, err := ratelimitservice.New(
		bucket.NewInMemoryBucketStore(),
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(ratelimitmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("build rate limiter: %w", err)
	}
	limiterMW := ratelimitmw.New(limiterSvc, log, ratelimitmw.WithDisabled(cfg.RateLimitOff))

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(platformmw.ClientMetadata)
		r.Use(limiterMW.RateLimit(1))
		searchhandler.New(searchSvc, limiterSvc, log, cfg.DemoMode).Register(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(platformmw.RequireAdmin(cfg.AdminJWTKey))
		circuithandler.New(breakers, log).Register(r)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting nexus server", "addr", cfg.Addr, "demo_mode", cfg.DemoMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildRegistry assembles the national registry adapters and the debt lookup,
// wrapping both in fixture delegates when demo mode is on so the canned
// identifier resolves without touching real upstreams.
func buildRegistry(cfg config.Server, log *slog.Logger) ([]adapters.Adapter, debt.Lookup) {
	httpClient := &http.Client{Timeout: cfg.Adapter.Timeout}

	upstreams := []adapters.Adapter{
		adapters.NewRPO(adapters.WithHTTPClient(httpClient), adapters.WithLogger(log)),
		adapters.NewARES(adapters.WithHTTPClient(httpClient), adapters.WithLogger(log)),
		adapters.NewKRS(adapters.WithHTTPClient(httpClient), adapters.WithLogger(log)),
		adapters.NewNAV(adapters.WithHTTPClient(httpClient), adapters.WithLogger(log)),
	}

	var debtLookup debt.Lookup = debt.NewService(
		debt.WithHTTPClient(httpClient),
		debt.WithLogger(log),
	)

	if cfg.DemoMode {
		for i, upstream := range upstreams {
			upstreams[i] = adapters.NewFixture(upstream, log)
		}
		debtLookup = debt.NewFixture(debtLookup, log)
	}
	return upstreams, debtLookup
}

// buildHistoryStore returns the Postgres-backed store when a DSN is
// configured, otherwise the bounded in-memory store.
func buildHistoryStore(ctx context.Context, cfg config.Server, log *slog.Logger) (searchservice.HistoryStore, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Info("no postgres DSN configured, keeping search history in memory")
		return history.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, history.Schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("apply history schema: %w", err)
	}
	return history.NewPostgres(db), func() { db.Close() }, nil
}
