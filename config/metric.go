package config

import "time"

// DeadbandConfig mirrors metric.Deadband for YAML configuration.
type DeadbandConfig struct {
	Value   float64       `yaml:"value"`
	MaxTime time.Duration `yaml:"max_time,omitempty"`
}

// MetricConfig is the YAML configuration for one metric's initial,
// scalar-only value. Producer callables are programmatic-only (set
// metric.Metric.Producer and add the metric with node.WithMetric); a
// config-loaded metric always starts with a literal Value.
type MetricConfig struct {
	Name string `yaml:"name"`
	// Type is one of the spec's DataType names: Int8..Int64, UInt8..UInt64,
	// Float, Double, Boolean, String, Text, DateTime.
	Type     string          `yaml:"type"`
	Value    any             `yaml:"value,omitempty"`
	ScanRate time.Duration   `yaml:"scan_rate,omitempty"`
	Deadband *DeadbandConfig `yaml:"deadband,omitempty"`
}

// DeviceConfig is the YAML configuration for one device owned by a node.
type DeviceConfig struct {
	ID      string         `yaml:"id"`
	Metrics []MetricConfig `yaml:"metrics,omitempty"`
}
