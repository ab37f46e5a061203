package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	return Parse(fs, args)
}

func TestDefaults(t *testing.T) {
	t.Setenv("GRPC_PORT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_SERVICE_NAME", "")

	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GRPCListenAddr != ":50056" {
		t.Errorf("GRPCListenAddr = %q, want :50056", cfg.GRPCListenAddr)
	}
	if cfg.ExporterEndpoint != "localhost:4317" {
		t.Errorf("ExporterEndpoint = %q", cfg.ExporterEndpoint)
	}
	if cfg.ServiceName != "service-f" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.ExportTimeout != 5*time.Second {
		t.Errorf("ExportTimeout = %s", cfg.ExportTimeout)
	}
	if cfg.BatchCapacity != 64 {
		t.Errorf("BatchCapacity = %d", cfg.BatchCapacity)
	}
	if cfg.SpanFlushInterval != time.Second || cfg.LogFlushInterval != time.Second {
		t.Errorf("flush intervals = %s/%s", cfg.SpanFlushInterval, cfg.LogFlushInterval)
	}
	if cfg.MetricsPushInterval != 10*time.Second {
		t.Errorf("MetricsPushInterval = %s", cfg.MetricsPushInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "6000")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_SERVICE_NAME", "service-f-test")

	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GRPCListenAddr != ":6000" {
		t.Errorf("GRPCListenAddr = %q, want :6000", cfg.GRPCListenAddr)
	}
	if cfg.ExporterEndpoint != "collector:4317" {
		t.Errorf("ExporterEndpoint = %q", cfg.ExporterEndpoint)
	}
	if cfg.ServiceName != "service-f-test" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("GRPC_PORT", "6000")

	cfg, err := parse(t, "-grpc-listen", ":7000", "-export-compression", "zstd")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GRPCListenAddr != ":7000" {
		t.Errorf("GRPCListenAddr = %q, want :7000", cfg.GRPCListenAddr)
	}
	if cfg.ExportCompression != "zstd" {
		t.Errorf("ExportCompression = %q", cfg.ExportCompression)
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  address: "7001"
exporter:
  endpoint: collector:4317
  timeout: 2s
  batch_capacity: 128
  compression: gzip
stats:
  log_interval: 30s
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t, "-config", path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.GRPCListenAddr != ":7001" {
		t.Errorf("GRPCListenAddr = %q, want :7001", cfg.GRPCListenAddr)
	}
	if cfg.ExportTimeout != 2*time.Second {
		t.Errorf("ExportTimeout = %s, want 2s", cfg.ExportTimeout)
	}
	if cfg.BatchCapacity != 128 {
		t.Errorf("BatchCapacity = %d, want 128", cfg.BatchCapacity)
	}
	if cfg.ExportCompression != "gzip" {
		t.Errorf("ExportCompression = %q", cfg.ExportCompression)
	}
	if cfg.StatsLogInterval != 30*time.Second {
		t.Errorf("StatsLogInterval = %s, want 30s", cfg.StatsLogInterval)
	}
	// Untouched fields keep their defaults.
	if cfg.SpanFlushInterval != time.Second {
		t.Errorf("SpanFlushInterval = %s, want 1s", cfg.SpanFlushInterval)
	}
}

func TestExplicitFlagsWinOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("exporter:\n  endpoint: from-file:4317\n  batch_capacity: 128\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t, "-config", path, "-exporter-endpoint", "from-flag:4317")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ExporterEndpoint != "from-flag:4317" {
		t.Errorf("ExporterEndpoint = %q, want from-flag:4317", cfg.ExporterEndpoint)
	}
	if cfg.BatchCapacity != 128 {
		t.Errorf("BatchCapacity = %d, want 128 from file", cfg.BatchCapacity)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"zero batch capacity", []string{"-batch-capacity", "0"}},
		{"unknown compression", []string{"-export-compression", "lz4"}},
		{"zero timeout", []string{"-export-timeout", "0s"}},
		{"empty listen addr", []string{"-grpc-listen", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parse(t, tc.args...); err == nil {
				t.Errorf("expected error for %v", tc.args)
			}
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := parse(t, "-config", "/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
