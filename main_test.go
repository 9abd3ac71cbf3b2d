package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/prephub/prephub-api/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.JWTSecret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestApp(t, testConfig()).routes())
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, cfg config.Config) *server {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newServer(cfg, log, gdb)
}

func TestRootHandler(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/health"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "PrepHub API is running ✅", body["status"], path)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Route not found"}`, string(raw))
}

func TestMeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(raw), "go_goroutines"), "metrics body missing runtime collector")
}

// loginStatuses posts logins from one peer, claiming a different client address
// in X-Forwarded-For each time.
func loginStatuses(t *testing.T, h http.Handler, attempts int) []int {
	t.Helper()
	var codes []int
	for i := range attempts {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"a@x.com","password":"guess"}`))
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	return codes
}

func countStatus(codes []int, status int) int {
	n := 0
	for _, c := range codes {
		if c == status {
			n++
		}
	}
	return n
}

func TestLoginLimit_IgnoresForwardedForByDefault(t *testing.T) {
	cfg := testConfig()
	h := newTestApp(t, cfg).routes()

	codes := loginStatuses(t, h, 20)

	assert.Equal(t, 20-cfg.LoginBurst, countStatus(codes, http.StatusTooManyRequests), "codes: %v", codes)
}

func TestLoginLimit_TrustsForwardedForWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.TrustProxyHeaders = true
	h := newTestApp(t, cfg).routes()

	codes := loginStatuses(t, h, 20)

	assert.Zero(t, countStatus(codes, http.StatusTooManyRequests), "codes: %v", codes)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	s := newTestApp(t, testConfig())
	var logs bytes.Buffer
	s.log = slog.New(slog.NewJSONHandler(&logs, nil))

	r := chi.NewRouter()
	r.Use(s.middlewares()...)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues("GET", "/boom", "500")))
	assert.Contains(t, logs.String(), `"status":500`)
}
