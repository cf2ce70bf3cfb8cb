package config

import "time"

// CompressConfig controls outbound payload compression.
type CompressConfig struct {
	// Enabled turns on compression for NBIRTH/NDATA/DBIRTH/DDATA payloads.
	Enabled bool `yaml:"enabled"`
	// Algorithm is one of "GZIP" or "DEFLATE", case-insensitive. An
	// unrecognized value is rejected at publish time with spb.ErrInvalidPayload,
	// not at config load time, since the field may be templated/expanded.
	Algorithm string `yaml:"algorithm,omitempty"`
}

// DefaultCompress leaves compression disabled.
var DefaultCompress = CompressConfig{}

// NodeConfig is the configuration for an edge node.
type NodeConfig struct {
	Transport TransportConfig `yaml:"transport,omitempty"`

	// Version is the Sparkplug namespace version, e.g. "spBv1.0".
	Version string `yaml:"version,omitempty"`
	// GroupID and EdgeNodeID identify this node within the namespace.
	GroupID    string `yaml:"group_id"`
	EdgeNodeID string `yaml:"edge_node_id"`

	Compress CompressConfig `yaml:"compress,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`

	// ConnectTimeout bounds Connect(); default 30s.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`

	// DefaultScanRate is used by any metric whose own ScanRate is zero.
	DefaultScanRate time.Duration `yaml:"default_scan_rate,omitempty"`

	// Metrics and Devices are this node's initial metric configuration.
	// Producer callables can't be expressed in YAML; node.NewFromConfig
	// applies its functional Options after it has built the scalar metrics
	// described here.
	Metrics []MetricConfig `yaml:"metrics,omitempty"`
	Devices []DeviceConfig `yaml:"devices,omitempty"`
}

func defaultNodeCfg() *NodeConfig {
	return &NodeConfig{
		Transport:       DefaultTransport,
		Version:         "spBv1.0",
		Compress:        DefaultCompress,
		ConnectTimeout:  30 * time.Second,
		DefaultScanRate: 10 * time.Second,
	}
}

// DefaultNode returns the default node configuration.
func DefaultNode() *NodeConfig {
	cfg := defaultNodeCfg()
	cfg.init()

	return cfg
}
