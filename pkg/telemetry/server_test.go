package telemetry

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"latent-hq/callisto/pkg/config"
)

func newTestTelemetry(t *testing.T, cfg *config.TelemetryConfig) *Telemetry {
	t.Helper()

	tel, err := New(cfg, "1.0.0-test", "abc123", "2026-08-25")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tel
}

// TestNewServer tests server construction.
func TestNewServer(t *testing.T) {
	tel := newTestTelemetry(t, &config.TelemetryConfig{
		Logging: config.LoggingConfig{Level: "error"},
	})

	srv := NewServer(tel)

	if srv == nil {
		t.Fatal("expected non-nil server")
	}
	if srv.IsRunning() {
		t.Error("expected server not running before Start")
	}
	if srv.Addr() != "" {
		t.Errorf("expected empty address before Start, got %q", srv.Addr())
	}
}

// TestServer_StartShutdown tests the full listener lifecycle against a
// real ephemeral port.
func TestServer_StartShutdown(t *testing.T) {
	cfg := &config.TelemetryConfig{
		Logging: config.LoggingConfig{Level: "error"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Health:  config.HealthConfig{Enabled: true},
	}
	tel := newTestTelemetry(t, cfg)
	tel.Metrics().RecordEvaluation("output_4", "patched", 0)

	srv := NewServer(tel)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Shutdown(context.Background())

	if !srv.IsRunning() {
		t.Error("expected server running after Start")
	}

	_, port, err := net.SplitHostPort(srv.Addr())
	if err != nil {
		t.Fatalf("failed to parse listener address %q: %v", srv.Addr(), err)
	}
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	for _, path := range []string{"/metrics", "/health", "/ready", "/version"} {
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected status %d, got %d", path, http.StatusOK, resp.StatusCode)
		}

		if path == "/metrics" && !strings.Contains(string(body), "callisto_engine_evaluations_total") {
			t.Error("expected evaluation counter in metrics output")
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("expected server stopped after Shutdown")
	}
}

// TestServer_StartTwice tests that a second Start fails.
func TestServer_StartTwice(t *testing.T) {
	tel := newTestTelemetry(t, &config.TelemetryConfig{
		Logging: config.LoggingConfig{Level: "error"},
	})

	srv := NewServer(tel)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Shutdown(context.Background())

	if err := srv.Start(); err == nil {
		t.Error("expected error from second Start")
	}
}

// TestServer_ShutdownWithoutStart tests that shutdown is a no-op before Start.
func TestServer_ShutdownWithoutStart(t *testing.T) {
	tel := newTestTelemetry(t, &config.TelemetryConfig{
		Logging: config.LoggingConfig{Level: "error"},
	})

	srv := NewServer(tel)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

// TestServer_Handler tests mounting the handler without a listener.
func TestServer_Handler(t *testing.T) {
	tests := []struct {
		name           string
		cfg            *config.TelemetryConfig
		path           string
		expectedStatus int
	}{
		{
			name: "metrics enabled",
			cfg: &config.TelemetryConfig{
				Logging: config.LoggingConfig{Level: "error"},
				Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
			},
			path:           "/metrics",
			expectedStatus: http.StatusOK,
		},
		{
			name: "metrics disabled",
			cfg: &config.TelemetryConfig{
				Logging: config.LoggingConfig{Level: "error"},
			},
			path:           "/metrics",
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "health endpoints enabled",
			cfg: &config.TelemetryConfig{
				Logging: config.LoggingConfig{Level: "error"},
				Health:  config.HealthConfig{Enabled: true},
			},
			path:           "/ready",
			expectedStatus: http.StatusOK,
		},
		{
			name: "custom health paths",
			cfg: &config.TelemetryConfig{
				Logging: config.LoggingConfig{Level: "error"},
				Health: config.HealthConfig{
					Enabled:       true,
					ReadinessPath: "/readyz",
				},
			},
			path:           "/readyz",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel := newTestTelemetry(t, tt.cfg)
			srv := NewServer(tel)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("GET %s: expected status %d, got %d", tt.path, tt.expectedStatus, rec.Code)
			}
		})
	}
}
