package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	logoutRatePerSecond = 2.0
	logoutBurst         = 5
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Console API
	s.echo.GET("/api/sessions", s.handleSessions)
	s.echo.GET("/api/dashboard", s.handleDashboard)
	s.echo.POST("/api/sessions/:id/logout", s.handleLogout, newRateLimiter(logoutRatePerSecond, logoutBurst))

	if s.auditor != nil {
		s.echo.GET("/api/invalidations", s.handleInvalidations)
	}

	// Live stream for connected consoles
	if s.broadcaster != nil {
		s.echo.GET("/ws", s.handleWebSocket)
	}
}
