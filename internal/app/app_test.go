package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/tasktags/internal/config"
	"github.com/keyxmakerx/tasktags/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:         "development",
		CORSOrigins: []string{"http://localhost:5173"},
		Database:    config.DatabaseConfig{Driver: config.DriverSQLite},
		RateLimit:   config.RateLimitConfig{Requests: 100, Window: time.Minute},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, rdb *redis.Client) *App {
	t.Helper()
	a := New(cfg, testutil.NewTestDB(t), rdb)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a.RegisterRoutes(ctx)
	return a
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestServiceInfo(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	rec := serve(a, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/todos")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := newTestApp(t, testConfig(), rdb)

	for _, path := range []string{"/healthz", "/health"} {
		rec := serve(a, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"ok"}}`, rec.Body.String())
	}

	mr.Close()
	rec := serve(a, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"unavailable"`)
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)
	require.NoError(t, a.DB.Close())

	rec := serve(a, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"unavailable"`)
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	rec := serve(a, http.MethodPost, "/api/todos", `{"title":"","priority":"urgent"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Bad Request", body.Error)
	fields := make([]string, 0, len(body.Details))
	for _, d := range body.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"title", "priority"}, fields)
}

func TestErrorHandler_NotFoundAndConflict(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	rec := serve(a, http.MethodGet, "/api/todos/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Not Found", body.Error)
	assert.Empty(t, body.Details)

	require.Equal(t, http.StatusCreated, serve(a, http.MethodPost, "/api/tags", `{"name":"Work"}`).Code)
	rec = serve(a, http.MethodPost, "/api/tags", `{"name":"WORK"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Conflict", decodeError(t, rec).Error)
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	rec := serve(a, http.MethodGet, "/api/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Not Found", body.Error)
	assert.Equal(t, "The requested resource does not exist.", body.Message)
}

func TestRateLimit_AppliesToAPIOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 1
	a := newTestApp(t, cfg, nil)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/tags", "").Code)

	rec := serve(a, http.MethodGet, "/api/tags", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/healthz", "").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 0
	a := newTestApp(t, cfg, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/tags", "").Code)
	}
}
