package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanohind/sessiondeck/internal/domain"
	"github.com/sanohind/sessiondeck/internal/engine"
	apperrors "github.com/sanohind/sessiondeck/internal/errors"
)

const (
	maxPageSize       = 100
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// sessionsResponse is one page of the registry plus the scheduler's state,
// so the console can render a "paused" banner when polling has stopped.
type sessionsResponse struct {
	domain.SessionPage
	SchedulerState engine.State `json:"scheduler_state"`
}

func (s *Server) handleSessions(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "page_size", s.config.PageSize)
	if err != nil {
		return err
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return apperrors.ValidationError("page_size must be between 1 and 100")
	}
	if page < 1 {
		page = 1
	}

	result := s.service.Sessions(page, pageSize)

	// An out-of-range page clamps to the last page rather than erroring:
	// sessions disappear between polls and the console may be holding a
	// page index that no longer exists.
	if len(result.Sessions) == 0 && result.TotalPages > 0 && page > result.TotalPages {
		result = s.service.Sessions(result.TotalPages, pageSize)
	}

	return c.JSON(http.StatusOK, sessionsResponse{
		SessionPage:    result,
		SchedulerState: s.service.State(),
	})
}

func (s *Server) handleDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Counters())
}

func (s *Server) handleLogout(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ValidationError("session id is required")
	}

	if err := s.service.Invalidate(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"session_id": id,
	})
}

func (s *Server) handleInvalidations(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultAuditLimit)
	if err != nil {
		return err
	}
	if limit < 1 || limit > maxAuditLimit {
		return apperrors.ValidationError("limit must be between 1 and 200")
	}

	records, err := s.auditor.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.InvalidationRecord{}
	}

	return c.JSON(http.StatusOK, map[string]any{"invalidations": records})
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ValidationError(name + " must be an integer")
	}
	return value, nil
}
