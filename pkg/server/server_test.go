package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/config"
	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/logger"
	"igaudit/pkg/provider"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.ClientRequestsPerMinute = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, checker Checker) (*Server, *logger.TestLogger) {
	t.Helper()
	if checker == nil {
		checker = detector.New(provider.NewMockProvider(), nil, logger.NewNopLogger())
	}
	tl := logger.NewTestLogger()
	return New(cfg, checker, tl), tl
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestClassifyGet(t *testing.T) {
	s, tl := newTestServer(t, testConfig(), nil)

	rec := do(s, http.MethodGet, "/api/v1/classify?username=ghost_account", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ghost_account", body["username"])
	assert.Equal(t, "fake", body["label"])
	assert.Equal(t, "low_followers_no_posts", body["rule"])
	assert.Contains(t, body["explanation"], "zero posts")
	assert.NotEmpty(t, body["signals"])
	assert.NotNil(t, body["record"])

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.True(t, tl.HasMessage("HTTP request completed"))
}

func TestClassifyPost(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(s, http.MethodPost, "/api/v1/classify", `{"username":"@travel_blogger"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "real", decode(t, rec)["label"])

	rec = do(s, http.MethodPost, "/api/v1/classify", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode(t, rec)["type"])
}

func TestClassifyErrors(t *testing.T) {
	s, tl := newTestServer(t, testConfig(), nil)

	rec := do(s, http.MethodGet, "/api/v1/classify", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation", body["type"])
	assert.Equal(t, "username is required", body["error"])

	rec = do(s, http.MethodGet, "/api/v1/classify?username=bad%20name", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/classify?username=nobody_here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["type"])
	assert.True(t, tl.HasMessage("HTTP request client error"))
}

type stubChecker struct {
	err error
}

func (s stubChecker) Check(ctx context.Context, raw string) (*detector.Report, error) {
	return nil, s.err
}

func TestClassifyUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errType string
	}{
		{"rate limit", errors.New(errors.ErrorTypeRateLimit, 429, "rate limit exceeded"), http.StatusTooManyRequests, "rate_limit"},
		{"auth", errors.New(errors.ErrorTypeAuth, 401, "authentication required"), http.StatusBadGateway, "auth"},
		{"network", errors.New(errors.ErrorTypeNetwork, 0, "network error"), http.StatusBadGateway, "network"},
		{"server", errors.New(errors.ErrorTypeServerError, 503, "server error"), http.StatusBadGateway, "server_error"},
		{"parsing", errors.New(errors.ErrorTypeParsing, 200, "failed to parse JSON"), http.StatusBadGateway, "parsing"},
		{"untyped", stderrors.New("disk on fire"), http.StatusInternalServerError, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, testConfig(), stubChecker{err: tt.err})
			rec := do(s, http.MethodGet, "/api/v1/classify?username=natgeo", "")

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.errType, body["type"])
			assert.NotContains(t, body["error"], "disk on fire")
		})
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestClientRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.ClientRequestsPerMinute = 2
	s, _ := newTestServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		rec := do(s, http.MethodGet, "/api/v1/classify?username=natgeo", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(s, http.MethodGet, "/api/v1/classify?username=natgeo", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit", decode(t, rec)["type"])
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// health checks are not limited
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	s.AddHealthCheck("cache", fakePinger{})
	rec = do(s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"cache": "ok"}, decode(t, rec)["checks"])

	s.AddHealthCheck("cache", fakePinger{err: stderrors.New("connection refused")})
	rec = do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode(t, rec)["status"])
}

type panicChecker struct{}

func (panicChecker) Check(ctx context.Context, raw string) (*detector.Report, error) {
	panic("boom")
}

func TestRecovery(t *testing.T) {
	s, tl := newTestServer(t, testConfig(), panicChecker{})

	rec := do(s, http.MethodGet, "/api/v1/classify?username=natgeo", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "unknown", decode(t, rec)["type"])
	assert.True(t, tl.HasMessage("panic while serving request"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testConfig()
	cfg.Server.Address = addr
	cfg.Server.ShutdownTimeout = time.Second
	s, _ := newTestServer(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
