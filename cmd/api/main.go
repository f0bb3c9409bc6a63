package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/veldclinics/booking-platform/internal/api/router"
	"github.com/veldclinics/booking-platform/internal/availability"
	"github.com/veldclinics/booking-platform/internal/bookings"
	"github.com/veldclinics/booking-platform/internal/catalog"
	appconfig "github.com/veldclinics/booking-platform/internal/config"
	"github.com/veldclinics/booking-platform/internal/continuation"
	"github.com/veldclinics/booking-platform/internal/http/handlers"
	"github.com/veldclinics/booking-platform/internal/observability/metrics"
	"github.com/veldclinics/booking-platform/internal/schedule"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	location, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "timezone", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// The catalog store reads through database/sql over the same database.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open catalog database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	var cache availability.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cache = availability.NewRedisCache(redis.NewClient(opts), cfg.CacheTTL, logger)
		logger.Info("availability cache: redis", "addr", cfg.RedisAddr)
	} else {
		cache = availability.NewLRUCache(cfg.CacheCapacity, cfg.CacheTTL, nil)
		logger.Info("availability cache: in-process LRU", "capacity", cfg.CacheCapacity)
	}

	m := metrics.NewAvailabilityMetrics(nil)

	scheduleStore := schedule.NewStore(pool)
	bookingStore := bookings.NewStore(pool)
	catalogStore := catalog.NewStore(sqlDB)
	tokenStore := continuation.NewStore(pool)

	availabilitySvc := availability.NewService(scheduleStore, bookingStore, catalogStore, cache, m, logger, availability.Config{
		Step:           time.Duration(cfg.SlotStepMinutes) * time.Minute,
		MinLeadTime:    cfg.MinLeadTime,
		Location:       location,
		HeatmapMaxDays: cfg.HeatmapMaxDays,
		HeatmapWorkers: cfg.HeatmapWorkerCount,
		DayDeadline:    cfg.DayComputeDeadline,
	}, nil)
	continuationSvc := continuation.NewService(tokenStore, catalogStore, bookingStore, m, logger, 0, nil)

	r := router.New(&router.Config{
		Logger:         logger,
		Availability:   handlers.NewAvailabilityHandler(availabilitySvc, location, logger),
		Continuation:   handlers.NewContinuationHandler(continuationSvc, logger),
		Health:         handlers.NewHealthHandler(pool, logger),
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
