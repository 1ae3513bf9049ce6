package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/logger"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

func serve(e *echo.Echo, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealth(t *testing.T) {
	e := newEcho(config.Config{}, nil, fakeDB{}, zap.NewNop())
	rec, body := serve(e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", body["database"])

	e = newEcho(config.Config{}, nil, fakeDB{err: errors.New("refused")}, zap.NewNop())
	rec, body = serve(e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	e := newEcho(config.Config{}, nil, nil, zap.NewNop())
	rec, body := serve(e, http.MethodGet, "/api/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_found", body["kind"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestMethodNotAllowedKeepsStatus(t *testing.T) {
	e := newEcho(config.Config{}, nil, nil, zap.NewNop())
	rec, body := serve(e, http.MethodDelete, "/health")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "bad_request", body["kind"])
}

func TestReturnedErrorsAndPanics(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := newEcho(config.Config{}, nil, nil, zap.New(core))
	e.GET("/conflict", func(echo.Context) error {
		return errorbank.Conflict("plate already registered", errorbank.WithField("plate", "already registered"))
	})
	e.GET("/boom", func(echo.Context) error { panic("nil map") })

	rec, body := serve(e, http.MethodGet, "/conflict")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, map[string]any{"plate": "already registered"}, body["details"])

	rec, body = serve(e, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body["error"])
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLoggerScopesContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := newEcho(config.Config{}, nil, nil, zap.New(core))

	var scoped *zap.Logger
	e.GET("/ping", func(c echo.Context) error {
		scoped = logger.FromContext(c.Request().Context(), nil)
		return c.NoContent(http.StatusNoContent)
	})

	rec, _ := serve(e, http.MethodGet, "/ping")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, scoped)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), fields["request_id"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
	assert.Equal(t, "/ping", fields["path"])
}
