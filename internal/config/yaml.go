package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the YAML configuration file structure. All fields
// are optional; absent fields leave the current value untouched.
type YAMLConfig struct {
	Server   ServerYAMLConfig   `yaml:"server"`
	Exporter ExporterYAMLConfig `yaml:"exporter"`
	Stats    StatsYAMLConfig    `yaml:"stats"`
}

// ServerYAMLConfig holds gRPC server settings.
type ServerYAMLConfig struct {
	Address string `yaml:"address"`
}

// ExporterYAMLConfig holds OTLP exporter settings.
type ExporterYAMLConfig struct {
	Endpoint            string   `yaml:"endpoint"`
	ServiceName         string   `yaml:"service_name"`
	Timeout             Duration `yaml:"timeout"`
	Compression         string   `yaml:"compression"`
	BatchCapacity       int      `yaml:"batch_capacity"`
	SpanFlushInterval   Duration `yaml:"span_flush_interval"`
	LogFlushInterval    Duration `yaml:"log_flush_interval"`
	MetricsPushInterval Duration `yaml:"metrics_push_interval"`
}

// StatsYAMLConfig holds stats settings.
type StatsYAMLConfig struct {
	Address     string   `yaml:"address"`
	LogInterval Duration `yaml:"log_interval"`
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML configuration from bytes.
func ParseYAML(data []byte) (*YAMLConfig, error) {
	cfg := &YAMLConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyTo overlays the file values onto cfg, skipping unset fields.
func (y *YAMLConfig) applyTo(cfg *Config) {
	if y.Server.Address != "" {
		cfg.GRPCListenAddr = listenAddr(y.Server.Address)
	}
	if y.Exporter.Endpoint != "" {
		cfg.ExporterEndpoint = y.Exporter.Endpoint
	}
	if y.Exporter.ServiceName != "" {
		cfg.ServiceName = y.Exporter.ServiceName
	}
	if y.Exporter.Timeout > 0 {
		cfg.ExportTimeout = time.Duration(y.Exporter.Timeout)
	}
	if y.Exporter.Compression != "" {
		cfg.ExportCompression = y.Exporter.Compression
	}
	if y.Exporter.BatchCapacity > 0 {
		cfg.BatchCapacity = y.Exporter.BatchCapacity
	}
	if y.Exporter.SpanFlushInterval > 0 {
		cfg.SpanFlushInterval = time.Duration(y.Exporter.SpanFlushInterval)
	}
	if y.Exporter.LogFlushInterval > 0 {
		cfg.LogFlushInterval = time.Duration(y.Exporter.LogFlushInterval)
	}
	if y.Exporter.MetricsPushInterval > 0 {
		cfg.MetricsPushInterval = time.Duration(y.Exporter.MetricsPushInterval)
	}
	if y.Stats.Address != "" {
		cfg.StatsAddr = y.Stats.Address
	}
	if y.Stats.LogInterval > 0 {
		cfg.StatsLogInterval = time.Duration(y.Stats.LogInterval)
	}
}

// Duration is a wrapper for time.Duration that unmarshals from strings like
// "1s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
