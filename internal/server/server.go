// Package server exposes the console API: session pages, dashboard
// counters, forced logout, the audit trail, and the live WebSocket stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sanohind/sessiondeck/internal/broadcast"
	"github.com/sanohind/sessiondeck/internal/config"
	"github.com/sanohind/sessiondeck/internal/domain"
	"github.com/sanohind/sessiondeck/internal/engine"
	apperrors "github.com/sanohind/sessiondeck/internal/errors"
)

// syncService is the server's view of the sync engine.
type syncService interface {
	Sessions(page, pageSize int) domain.SessionPage
	Counters() domain.DashboardCounters
	State() engine.State
	ConsecutiveFailures() int
	Invalidate(ctx context.Context, id string) error
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	service     syncService
	broadcaster *broadcast.Broadcaster
	auditor     domain.InvalidationAuditor
	redisClient *goredis.Client
	pool        *pgxpool.Pool
	startTime   time.Time
}

// NewServer wires the console API. broadcaster, auditor, redisClient, and
// pool may be nil; the matching routes and readiness checks are then
// omitted.
func NewServer(cfg *config.Config, service syncService, broadcaster *broadcast.Broadcaster, auditor domain.InvalidationAuditor, redisClient *goredis.Client, pool *pgxpool.Pool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		service:     service,
		broadcaster: broadcaster,
		auditor:     auditor,
		redisClient: redisClient,
		pool:        pool,
		startTime:   time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
