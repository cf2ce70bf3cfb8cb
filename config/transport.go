package config

import (
	"crypto/tls"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/joyautomation/synapse-go/log"
)

// TransportConfig is the configuration shared by everything that dials an
// MQTT broker: edge nodes and hosts alike.
type TransportConfig struct {
	// Broker is the MQTT endpoint, e.g. "tcp://localhost:1883".
	Broker string `yaml:"broker"`
	// ClientID is the MQTT client ID. If empty, paho generates one.
	ClientID string `yaml:"client_id,omitempty"`
	// Username and Password are used for MQTT auth, if set.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	// KeepAlive is the MQTT keepalive interval.
	KeepAlive time.Duration `yaml:"keep_alive,omitempty"`
	// CertFile and KeyFile enable TLS client auth when both are set.
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
	// ReconnectInterval bounds paho's automatic reconnect backoff. The core
	// state machine does not itself reconnect (spec: "the core does not own
	// reconnect"); this only governs paho's own retry of the TCP dial once
	// AutoReconnect is enabled by a supervisor.
	ReconnectInterval time.Duration `yaml:"reconnect_interval,omitempty"`
	// ConnectTimeout bounds Connect(); default is applied by the caller (30s).
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
	PingTimeout    time.Duration `yaml:"ping_timeout,omitempty"`
	WriteTimeout   time.Duration `yaml:"write_timeout,omitempty"`

	// LogLevel is parsed from configuration but not applied: the MQTT
	// adapter's output goes through the process-wide logger at its level.
	LogLevel log.Level `yaml:"log_level,omitempty"`

	tlsCert *tls.Certificate
}

// ClientOptions returns a *mqtt.ClientOptions configured from cfg. It does
// not set a will; callers (node.New, host.New) add the NDEATH/STATE-OFFLINE
// will afterward since it depends on identity the transport config does not
// carry.
func (cfg *TransportConfig) ClientOptions() *mqtt.ClientOptions {
	o := mqtt.NewClientOptions()
	o.AddBroker(cfg.Broker)
	o.SetClientID(cfg.ClientID)
	o.SetUsername(cfg.Username)
	o.SetPassword(cfg.Password)
	o.SetCleanSession(true)
	o.SetAutoReconnect(false)

	if cfg.KeepAlive > 0 {
		o.SetKeepAlive(cfg.KeepAlive)
	}
	if cfg.ReconnectInterval > 0 {
		o.SetMaxReconnectInterval(cfg.ReconnectInterval)
	}
	if cfg.ConnectTimeout > 0 {
		o.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.PingTimeout > 0 {
		o.SetPingTimeout(cfg.PingTimeout)
	}
	if cfg.WriteTimeout > 0 {
		o.SetWriteTimeout(cfg.WriteTimeout)
	}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		o.SetTLSConfig(&tls.Config{
			GetCertificate: cfg.getCertificate,
		})
	}

	return o
}

func (cfg *TransportConfig) getCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if cfg.tlsCert == nil {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}

		cfg.tlsCert = &cert
	}

	return cfg.tlsCert, nil
}

// DefaultTransport is the zero-value-equivalent transport configuration,
// reading broker credentials from the environment so a node or host can be
// started with no config file at all.
var DefaultTransport = TransportConfig{
	Broker:   "$SPARKPLUG_BROKER_ADDRESS",
	Username: "$SPARKPLUG_BROKER_USERNAME",
	Password: "$SPARKPLUG_BROKER_PASSWORD",
}
