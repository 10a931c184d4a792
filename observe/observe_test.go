package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// TestConfigValidate covers each validation rule.
func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "test-service",
			Version:     "1.0.0",
			Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.0},
			Metrics:     MetricsConfig{Enabled: true, Exporter: "stdout"},
			Logging:     LoggingConfig{Enabled: true, Level: "normal"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: ErrMissingServiceName},
		{name: "unknown tracing exporter", mutate: func(c *Config) { c.Tracing.Exporter = "jaeger" }, wantErr: ErrInvalidTracingExporter},
		{name: "sample pct above range", mutate: func(c *Config) { c.Tracing.SamplePct = 1.5 }, wantErr: ErrInvalidSamplePct},
		{name: "sample pct negative", mutate: func(c *Config) { c.Tracing.SamplePct = -0.1 }, wantErr: ErrInvalidSamplePct},
		{name: "unknown metrics exporter", mutate: func(c *Config) { c.Metrics.Exporter = "badvalue" }, wantErr: ErrInvalidMetricsExporter},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: ErrInvalidLogLevel},
		{name: "silent log level", mutate: func(c *Config) { c.Logging.Level = "silent" }},
		{name: "debug log level", mutate: func(c *Config) { c.Logging.Level = "debug" }},
		{name: "disabled tracing ignores exporter", mutate: func(c *Config) {
			c.Tracing.Enabled = false
			c.Tracing.Exporter = "bogus"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNewObserver_DisabledNoop verifies disabled subsystems fall back to no-ops.
func TestNewObserver_DisabledNoop(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "observe-test"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	if obs.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if obs.Meter() == nil {
		t.Fatal("expected non-nil meter")
	}
	if obs.Logger() == nil {
		t.Fatal("expected non-nil logger")
	}
}

// TestNewObserver_LoggerUsesConfiguredWriter verifies Logging.Writer receives log lines.
func TestNewObserver_LoggerUsesConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "observe-test",
		Logging:     LoggingConfig{Enabled: true, Level: "normal", Writer: &buf},
	})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	obs.Logger().Info(context.Background(), "hello")
	if !strings.Contains(buf.String(), `"message":"hello"`) {
		t.Errorf("expected log line in writer, got %q", buf.String())
	}
}

// TestNewObserver_InvalidConfigReturnsError verifies validation runs first.
func TestNewObserver_InvalidConfigReturnsError(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver() error = %v, want ErrMissingServiceName", err)
	}
}

// TestObserver_ShutdownGracefully verifies enabled providers shut down cleanly.
func TestObserver_ShutdownGracefully(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "observe-test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 0.5},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
	})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}
