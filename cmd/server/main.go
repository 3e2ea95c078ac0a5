package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/sanohind/sessiondeck/internal/broadcast"
	"github.com/sanohind/sessiondeck/internal/config"
	"github.com/sanohind/sessiondeck/internal/database"
	"github.com/sanohind/sessiondeck/internal/engine"
	"github.com/sanohind/sessiondeck/internal/gateway"
	"github.com/sanohind/sessiondeck/internal/logging"
	"github.com/sanohind/sessiondeck/internal/redis"
	"github.com/sanohind/sessiondeck/internal/registry"
	"github.com/sanohind/sessiondeck/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// warmStart seeds the registry and counters from the snapshot cache so a
// restarted console is not blind until the first poll. The entries render
// as stale until the eager sync replaces them.
func warmStart(cache *redis.SnapshotCache, reg *registry.Registry, eng *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if sessions, ok, err := cache.LoadSessions(ctx); err != nil {
		slog.Warn("Failed to load cached session snapshot", "error", err)
	} else if ok {
		reg.WarmStart(sessions)
		slog.Info("Warm-started registry from snapshot cache", "sessions", len(sessions))
	}

	if counters, ok, err := cache.LoadCounters(ctx); err != nil {
		slog.Warn("Failed to load cached counters snapshot", "error", err)
	} else if ok {
		eng.SeedCounters(counters)
	}
}

func runGracefulShutdown(srv *server.Server, eng *engine.Engine, broadcaster *broadcast.Broadcaster) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		eng.Stop()
		broadcaster.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	client := gateway.New(cfg.AdminAPIBaseURL, cfg.AdminAPIToken)
	reg := registry.New()
	eng := engine.New(client, reg, clock, cfg.PollInterval, cfg.CountersInterval)

	broadcaster := broadcast.New(clock, 0)
	eng.SetPublisher(broadcaster)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()

		cache := redis.NewSnapshotCache(redisClient.Underlying(), clock)
		eng.SetCache(cache)
		warmStart(cache, reg, eng)
	}

	var pool *pgxpool.Pool
	var auditor *database.AuditRepo
	if cfg.DatabaseURL != "" {
		pool = setupDB(cfg)
		defer pool.Close()

		auditor = database.NewAuditRepo(pool)
		eng.SetAuditor(auditor)
	}

	if err := eng.Start(context.Background()); err != nil {
		slog.Error("Failed to start sync engine", "error", err)
		os.Exit(1)
	}

	// Avoid typed-nil interfaces for the optional collaborators.
	var srv *server.Server
	switch {
	case auditor != nil && redisClient != nil:
		srv = server.NewServer(cfg, eng, broadcaster, auditor, redisClient.Underlying(), pool)
	case auditor != nil:
		srv = server.NewServer(cfg, eng, broadcaster, auditor, nil, pool)
	case redisClient != nil:
		srv = server.NewServer(cfg, eng, broadcaster, nil, redisClient.Underlying(), pool)
	default:
		srv = server.NewServer(cfg, eng, broadcaster, nil, nil, nil)
	}

	done := runGracefulShutdown(srv, eng, broadcaster)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
