package config

import "time"

// HostConfig is the configuration for a primary host application.
type HostConfig struct {
	Transport TransportConfig `yaml:"transport,omitempty"`

	// Version is the Sparkplug namespace version, e.g. "spBv1.0".
	Version string `yaml:"version,omitempty"`
	// PrimaryHostID identifies this host in the STATE/<primaryHostId> topic.
	PrimaryHostID string `yaml:"primary_host_id"`

	// SharedSubscriptionGroup, if set, wraps the NDATA/DDATA filters as
	// $share/<group>/<filter> so multiple host instances can load-balance
	// high-volume data delivery. Low-volume control topics (NBIRTH, NDEATH,
	// DBIRTH, DDEATH, STATE) are always subscribed exclusively.
	SharedSubscriptionGroup string `yaml:"shared_subscription_group,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
}

func defaultHostCfg() *HostConfig {
	return &HostConfig{
		Transport:      DefaultTransport,
		Version:        "spBv1.0",
		ConnectTimeout: 30 * time.Second,
	}
}

// DefaultHost returns the default host configuration.
func DefaultHost() *HostConfig {
	cfg := defaultHostCfg()
	cfg.init()

	return cfg
}
