package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(Middleware())
	e.GET("/test", handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_NoError(t *testing.T) {
	rec := performRequest(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddleware_ClassifiedErrorBecomesJSON(t *testing.T) {
	rec := performRequest(t, func(c echo.Context) error {
		return ValidationError("page must be a positive integer")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "page must be a positive integer", resp.Error)
}

func TestMiddleware_UpstreamFailureIsBadGateway(t *testing.T) {
	rec := performRequest(t, func(c echo.Context) error {
		return TransportError(errors.New("dial tcp: connection refused"))
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeTransport, resp.Type)
}

func TestMiddleware_UnclassifiedBecomesInternal(t *testing.T) {
	rec := performRequest(t, func(c echo.Context) error {
		return errors.New("something broke")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeInternal, resp.Type)
	// Internal details never leak to the client.
	assert.Equal(t, "internal error", resp.Error)
}

func TestMiddleware_EchoHTTPErrorPassesThrough(t *testing.T) {
	rec := performRequest(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "teapot")
	})
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
