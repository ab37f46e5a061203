// Package config resolves the service configuration from defaults,
// environment variables, an optional YAML file, and command line flags, in
// that order of increasing precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// version is set at build time via ldflags.
var version = "dev"

// Config holds the application configuration.
type Config struct {
	// Server settings
	GRPCListenAddr string

	// Exporter settings
	ExporterEndpoint    string
	ServiceName         string
	ExportTimeout       time.Duration
	ExportCompression   string
	BatchCapacity       int
	SpanFlushInterval   time.Duration
	LogFlushInterval    time.Duration
	MetricsPushInterval time.Duration

	// Stats settings
	StatsAddr        string
	StatsLogInterval time.Duration
}

// DefaultConfig returns the configuration with defaults applied, including
// environment variable overrides.
func DefaultConfig() *Config {
	return &Config{
		GRPCListenAddr:      listenAddr(envOr("GRPC_PORT", "50056")),
		ExporterEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceName:         envOr("OTEL_SERVICE_NAME", "service-f"),
		ExportTimeout:       5 * time.Second,
		BatchCapacity:       64,
		SpanFlushInterval:   time.Second,
		LogFlushInterval:    time.Second,
		MetricsPushInterval: 10 * time.Second,
		StatsAddr:           ":8888",
		StatsLogInterval:    60 * time.Second,
	}
}

// Version returns the build version.
func Version() string {
	return version
}

// ParseFlags parses the process arguments and returns the configuration.
func ParseFlags() (*Config, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Parse resolves configuration against the given flag set. Split out from
// ParseFlags so tests can use a private flag set.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()

	var configFile string
	fs.StringVar(&configFile, "config", "", "Path to YAML configuration file")

	fs.StringVar(&cfg.GRPCListenAddr, "grpc-listen", cfg.GRPCListenAddr, "gRPC server listen address")
	fs.StringVar(&cfg.ExporterEndpoint, "exporter-endpoint", cfg.ExporterEndpoint, "OTLP collector endpoint")
	fs.StringVar(&cfg.ServiceName, "service-name", cfg.ServiceName, "Reported service.name resource attribute")
	fs.DurationVar(&cfg.ExportTimeout, "export-timeout", cfg.ExportTimeout, "Per-export-call deadline")
	fs.StringVar(&cfg.ExportCompression, "export-compression", cfg.ExportCompression, "Export compression: gzip, zstd, or none")
	fs.IntVar(&cfg.BatchCapacity, "batch-capacity", cfg.BatchCapacity, "Pending batch capacity per signal")
	fs.DurationVar(&cfg.SpanFlushInterval, "span-flush-interval", cfg.SpanFlushInterval, "Span batch flush interval")
	fs.DurationVar(&cfg.LogFlushInterval, "log-flush-interval", cfg.LogFlushInterval, "Log batch flush interval")
	fs.DurationVar(&cfg.MetricsPushInterval, "metrics-push-interval", cfg.MetricsPushInterval, "Request metrics push interval")
	fs.StringVar(&cfg.StatsAddr, "stats-addr", cfg.StatsAddr, "Prometheus stats listen address (empty disables)")
	fs.DurationVar(&cfg.StatsLogInterval, "stats-log-interval", cfg.StatsLogInterval, "Stats summary log interval")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configFile != "" {
		yamlCfg, err := LoadYAML(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
		yamlCfg.applyTo(cfg)
		// Explicitly set flags win over the file.
		applyFlagOverrides(fs, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.GRPCListenAddr == "" {
		return fmt.Errorf("grpc listen address must not be empty")
	}
	if c.ExporterEndpoint == "" {
		return fmt.Errorf("exporter endpoint must not be empty")
	}
	if c.BatchCapacity <= 0 {
		return fmt.Errorf("batch capacity must be positive, got %d", c.BatchCapacity)
	}
	switch c.ExportCompression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unsupported export compression: %s", c.ExportCompression)
	}
	for name, d := range map[string]time.Duration{
		"export-timeout":        c.ExportTimeout,
		"span-flush-interval":   c.SpanFlushInterval,
		"log-flush-interval":    c.LogFlushInterval,
		"metrics-push-interval": c.MetricsPushInterval,
		"stats-log-interval":    c.StatsLogInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// applyFlagOverrides re-applies flags the user set explicitly so they take
// precedence over file values. Only visits flags that were actually set.
func applyFlagOverrides(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "grpc-listen":
			cfg.GRPCListenAddr = v
		case "exporter-endpoint":
			cfg.ExporterEndpoint = v
		case "service-name":
			cfg.ServiceName = v
		case "export-timeout":
			cfg.ExportTimeout = mustDuration(v)
		case "export-compression":
			cfg.ExportCompression = v
		case "batch-capacity":
			fmt.Sscanf(v, "%d", &cfg.BatchCapacity)
		case "span-flush-interval":
			cfg.SpanFlushInterval = mustDuration(v)
		case "log-flush-interval":
			cfg.LogFlushInterval = mustDuration(v)
		case "metrics-push-interval":
			cfg.MetricsPushInterval = mustDuration(v)
		case "stats-addr":
			cfg.StatsAddr = v
		case "stats-log-interval":
			cfg.StatsLogInterval = mustDuration(v)
		}
	})
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// listenAddr normalizes a bare port number to a listen address.
func listenAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}
