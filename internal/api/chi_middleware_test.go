// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/retailpulse/internal/config"
)

func okHandler(called *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called++
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)

	if m.config == nil {
		t.Fatal("config is nil")
	}
	// No origins until configured
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.RateLimitRequests != 100 || m.config.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 100/1m", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	tests := []struct {
		name       string
		sec        *config.SecurityConfig
		wantReqs   int
		wantWindow time.Duration
		wantOff    bool
	}{
		{"nil keeps defaults", nil, 100, time.Minute, false},
		{"zero values keep defaults", &config.SecurityConfig{}, 100, time.Minute, false},
		{
			"overrides",
			&config.SecurityConfig{
				CORSOrigins:       []string{"https://shop.example"},
				RateLimitReqs:     20,
				RateLimitWindow:   30 * time.Second,
				RateLimitDisabled: true,
			},
			20, 30 * time.Second, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ChiMiddlewareConfigFromSecurity(tt.sec)
			if cfg.RateLimitRequests != tt.wantReqs {
				t.Errorf("RateLimitRequests = %d, want %d", cfg.RateLimitRequests, tt.wantReqs)
			}
			if cfg.RateLimitWindow != tt.wantWindow {
				t.Errorf("RateLimitWindow = %v, want %v", cfg.RateLimitWindow, tt.wantWindow)
			}
			if cfg.RateLimitDisabled != tt.wantOff {
				t.Errorf("RateLimitDisabled = %v, want %v", cfg.RateLimitDisabled, tt.wantOff)
			}
			if len(cfg.CORSAllowedMethods) == 0 {
				t.Error("CORSAllowedMethods should keep the defaults")
			}
		})
	}
}

func TestChiMiddleware_CORS(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://allowed.example"}
	m := NewChiMiddleware(cfg)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed origin is reflected", "https://allowed.example", "https://allowed.example"},
		{"other origin gets no header", "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := 0
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/metrics", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			m.CORS()(okHandler(&called)).ServeHTTP(w, req)

			if called != 1 {
				t.Errorf("handler called %d times, want 1", called)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestChiMiddleware_CORS_Preflight(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"*"}
	m := NewChiMiddleware(cfg)

	called := 0
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stores/kpi/reset", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	m.CORS()(okHandler(&called)).ServeHTTP(w, req)

	if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 200 or 204", w.Code)
	}
	if called != 0 {
		t.Error("handler should not be called for a preflight")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Access-Control-Allow-Methods should be set")
	}
}

func TestChiMiddleware_RateLimitDisabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	m := NewChiMiddleware(cfg)

	called := 0
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler(&called))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	if called != 5 {
		t.Errorf("handler called %d times, want 5", called)
	}
}

func TestChiMiddleware_RateLimitPerIP(t *testing.T) {
	m := NewChiMiddleware(nil)

	called := 0
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler(&called))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		proto    string
		wantHSTS bool
	}{
		{"plain http", "", false},
		{"behind tls proxy", "https", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			w := httptest.NewRecorder()

			APISecurityHeaders()(okHandler(&called)).ServeHTTP(w, req)

			if got := w.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", got)
			}
			if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
			}
			if hsts := w.Header().Get("Strict-Transport-Security") != ""; hsts != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", hsts, tt.wantHSTS)
			}
		})
	}
}
