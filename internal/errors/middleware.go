package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPErrorsTotal tracks console API errors by type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)

// Middleware returns an Echo middleware that converts classified errors
// into JSON responses, records them, and logs them with request context.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// Echo's own HTTPErrors (404 on unknown route, method not
			// allowed) keep their status; only record them.
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				HTTPErrorsTotal.WithLabelValues(string(typeForStatus(httpErr.Code))).Inc()
				return err
			}

			classified := AsError(err)
			HTTPErrorsTotal.WithLabelValues(string(classified.Type)).Inc()
			logError(c, classified)

			if err := c.JSON(classified.HTTPStatus(), classified.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func typeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusNotFound:
		return TypeNotFound
	case status >= 400 && status < 500:
		return TypeValidation
	default:
		return TypeInternal
	}
}

func logError(c echo.Context, e *Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"type", string(e.Type),
		"status", e.HTTPStatus(),
		"method", c.Request().Method,
		"path", c.Path(),
	}
	if e.Cause != nil {
		attrs = append(attrs, "cause", e.Cause.Error())
	}

	switch e.Type {
	case TypeValidation, TypeNotFound:
		slog.DebugContext(ctx, e.Message, attrs...)
	case TypeInternal:
		slog.ErrorContext(ctx, e.Message, attrs...)
	default:
		slog.WarnContext(ctx, e.Message, attrs...)
	}
}
