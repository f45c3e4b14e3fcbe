// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/retailpulse/internal/analytics"
	"github.com/tomtom215/retailpulse/internal/analytics/analyticstest"
	"github.com/tomtom215/retailpulse/internal/cache"
	"github.com/tomtom215/retailpulse/internal/dashboard"
	"github.com/tomtom215/retailpulse/internal/models"
	"github.com/tomtom215/retailpulse/internal/refresh"
	"github.com/tomtom215/retailpulse/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

type testServer struct {
	handler http.Handler
	src     *analyticstest.Source
	clock   *clockwork.FakeClock
}

type serverOptions struct {
	throttle *RefreshThrottle
	source   Pinger
	breaker  BreakerStater
	mw       *ChiMiddlewareConfig
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	src := analyticstest.New(
		analytics.ResultSets{Metrics: []analytics.Row{{"TotalRevenue": "2500"}}},
		[]analytics.Row{
			analyticstest.KpiRow(1, "Durres", "100"),
			analyticstest.KpiRow(2, "Tirana", "200"),
		},
	)
	clock := clockwork.NewFakeClockAt(time.Now().UTC())
	repo := dashboard.NewRepository(src)
	dc := cache.NewDashboardCache(repo, cache.DashboardConfig{Clock: clock})
	ks := cache.NewStoreKpiStore(src, cache.StoreKpiConfig{Clock: clock})
	orch := refresh.NewOrchestrator(dc, ks, refresh.Config{Interval: time.Hour, Clock: clock})
	svc := service.New(service.Deps{
		Dashboard:    dc,
		StoreKpi:     ks,
		Orchestrator: orch,
		Loader:       repo,
		Clock:        clock,
	})

	if opts.mw == nil {
		opts.mw = DefaultChiMiddlewareConfig()
		opts.mw.RateLimitDisabled = true
	}
	h := NewHandler(HandlerConfig{
		Service:  svc,
		Source:   opts.source,
		Breaker:  opts.breaker,
		Throttle: opts.throttle,
	})
	return &testServer{
		handler: NewRouter(h, NewChiMiddleware(opts.mw)).SetupChi(),
		src:     src,
		clock:   clock,
	}
}

func (s *testServer) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\nbody: %s", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestDashboardMetrics_Success(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodGet, "/api/v1/dashboard/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !env.Success || env.Error != nil {
		t.Fatalf("envelope = %+v, want success", env)
	}

	var payload models.DashboardPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if m, ok := payload.Metric(dashboard.MetricRevenue); !ok || m.Value != "2.5K" {
		t.Errorf("revenue metric = %+v, want 2.5K", m)
	}

	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Fatal("meta.request_id missing")
	}
	if env.Meta.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("meta.request_id %q != X-Request-ID %q", env.Meta.RequestID, rec.Header().Get("X-Request-ID"))
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", rec.Header().Get("Cache-Control"))
	}
}

func TestDashboardMetrics_ValidationErrors(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"bad refresh", "?refresh=maybe", "refresh"},
		{"bad date", "?forDate=08-08-2025", "forDate"},
		{"date with space", "?forDate=2025-08-08%2010:00", "forDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, "/api/v1/dashboard/metrics"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Success || env.Error == nil || env.Error.Code != ErrCodeValidation {
				t.Fatalf("error = %+v, want %s", env.Error, ErrCodeValidation)
			}
			if !strings.HasPrefix(env.Error.Message, tt.field) {
				t.Errorf("message %q should name %s", env.Error.Message, tt.field)
			}
			if env.Error.RequestID == "" {
				t.Error("error.request_id missing")
			}
		})
	}
	if s.src.DashboardCalls() != 0 {
		t.Errorf("invalid requests reached the source %d times", s.src.DashboardCalls())
	}
}

func TestDashboardMetrics_PastDate(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	day := s.clock.Now().AddDate(0, 0, -3).Format("2006-01-02")

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/dashboard/metrics?forDate="+day)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	}
	if s.src.DashboardCalls() != 1 {
		t.Errorf("dashboard calls = %d, want 1 (historical day cached)", s.src.DashboardCalls())
	}
	mode, _ := s.src.LastMode()
	if mode.IsAsOf() || mode.ForDate.Format("2006-01-02") != day {
		t.Errorf("mode = %v, want for_date %s", mode, day)
	}
}

func TestDashboardMetrics_SourceUnavailable(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.src.FailDashboard(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	rec, env := s.do(t, http.MethodGet, "/api/v1/dashboard/metrics")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeSourceUnavailable {
		t.Fatalf("error = %+v, want %s", env.Error, ErrCodeSourceUnavailable)
	}
	if strings.Contains(env.Error.Message, "10.0.0.5") {
		t.Errorf("message leaks driver error: %q", env.Error.Message)
	}
}

func TestForcedRefreshThrottle(t *testing.T) {
	s := newTestServer(t, serverOptions{throttle: NewRefreshThrottle(1)})

	rec, _ := s.do(t, http.MethodGet, "/api/v1/dashboard/metrics?refresh=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("first forced refresh status = %d, want 200", rec.Code)
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/stores/1/kpi?refresh=true")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second forced refresh status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeRefreshThrottled {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeRefreshThrottled)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}

	// Plain reads and forDate reads are never throttled.
	for _, target := range []string{
		"/api/v1/dashboard/metrics",
		"/api/v1/dashboard/metrics?refresh=false",
		"/api/v1/dashboard/metrics?refresh=true&forDate=" + s.clock.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	} {
		if rec, _ := s.do(t, http.MethodGet, target); rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", target, rec.Code)
		}
	}
}

func TestStoreKpi(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodGet, "/api/v1/stores/2/kpi")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var kpi models.StoreKpi
	if err := json.Unmarshal(env.Data, &kpi); err != nil {
		t.Fatalf("decode kpi: %v", err)
	}
	if kpi.StoreID != 2 || kpi.StoreName != "Tirana" {
		t.Errorf("kpi = %d/%q, want 2/Tirana", kpi.StoreID, kpi.StoreName)
	}
	if kpi.RevenueToday.String() != "200" {
		t.Errorf("RevenueToday = %s, want 200", kpi.RevenueToday)
	}
}

func TestStoreKpi_Errors(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown store", "/api/v1/stores/99/kpi", http.StatusNotFound, ErrCodeNotFound},
		{"non-numeric id", "/api/v1/stores/abc/kpi", http.StatusBadRequest, ErrCodeValidation},
		{"negative id", "/api/v1/stores/-1/kpi", http.StatusBadRequest, ErrCodeValidation},
		{"oversized id", "/api/v1/stores/12345678901/kpi", http.StatusBadRequest, ErrCodeValidation},
		{"bad refresh", "/api/v1/stores/1/kpi?refresh=sometimes", http.StatusBadRequest, ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.status, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestStoreKpi_SourceUnavailable(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.src.FailStoreKpi(errors.New("timeout"))

	rec, env := s.do(t, http.MethodGet, "/api/v1/stores/1/kpi")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeSourceUnavailable {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeSourceUnavailable)
	}
}

func TestResetEndpoints(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	if rec, _ := s.do(t, http.MethodGet, "/api/v1/stores/1/kpi"); rec.Code != http.StatusOK {
		t.Fatalf("warm status = %d", rec.Code)
	}

	for _, target := range []string{"/api/v1/dashboard/metrics/reset", "/api/v1/stores/kpi/reset"} {
		rec, _ := s.do(t, http.MethodPost, target)
		if rec.Code != http.StatusNoContent {
			t.Errorf("POST %s status = %d, want 204", target, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("POST %s body = %q, want empty", target, rec.Body.String())
		}
	}

	if rec, _ := s.do(t, http.MethodGet, "/api/v1/stores/1/kpi"); rec.Code != http.StatusOK {
		t.Fatalf("read after reset status = %d", rec.Code)
	}
	if s.src.StoreKpiCalls() != 2 {
		t.Errorf("store kpi calls = %d, want 2 (reset forces a re-warm)", s.src.StoreKpiCalls())
	}
}

func TestRouting_EnvelopeForUnknownRoutes(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodGet, "/api/v1/nope")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route = %d %+v, want 404 NOT_FOUND", rec.Code, env.Error)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/dashboard/metrics/reset")
	if rec.Code != http.StatusMethodNotAllowed || env.Error == nil {
		t.Errorf("GET on reset = %d %+v, want 405 envelope", rec.Code, env.Error)
	}
}

func TestRateLimit(t *testing.T) {
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 2
	mw.RateLimitWindow = time.Minute
	s := newTestServer(t, serverOptions{mw: mw})

	var last *httptest.ResponseRecorder
	var env envelope
	for i := 0; i < 3; i++ {
		last, env = s.do(t, http.MethodGet, "/api/v1/stores/1/kpi")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeTooManyRequests)
	}

	// Health probes have their own budget.
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/health/live"); rec.Code != http.StatusOK {
		t.Errorf("health/live status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.do(t, http.MethodGet, "/api/v1/dashboard/metrics")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"api_requests_total", `endpoint="/api/v1/dashboard/metrics"`, "retailpulse_refresh_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics output missing %s", want)
		}
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeBreaker string

func (b fakeBreaker) State() string { return string(b) }
