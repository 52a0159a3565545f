package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manpower/internal/domain/auth"
	"manpower/internal/platform/config"
	"manpower/internal/platform/metrics"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func testDeps(pingErr error) Deps {
	return Deps{
		Config: config.Config{
			JWTSecret:          "router-secret",
			MaxBodyBytes:       1024,
			MetricsEnabled:     true,
			RateLimitPerMinute: 8,
		},
		DB:       fakePinger{err: pingErr},
		Metrics:  metrics.New(),
		Sessions: auth.NewService(nil, "router-secret", time.Hour),
		Perms:    auth.StaticPermissions{},
	}
}

func TestHealthAndReadiness(t *testing.T) {
	router := NewRouter(testDeps(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewRouter(testDeps(errors.New("connection refused")))
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsCountRequests(t *testing.T) {
	deps := testDeps(nil)
	router := NewRouter(deps)

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/payroll/settings", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data map[string]float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 4.0, env.Data["requestsTotal"])
	assert.Equal(t, 1.0, env.Data["clientErrorsTotal"])
}

func TestMetricsDisabled(t *testing.T) {
	deps := testDeps(nil)
	deps.Config.MetricsEnabled = false
	router := NewRouter(deps)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyLimitApplied(t *testing.T) {
	router := NewRouter(testDeps(nil))

	body := `{"email":"` + strings.Repeat("a", 2048) + `","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	router := NewRouter(testDeps(nil))

	login := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"admin@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.7:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := login()
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := login()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
