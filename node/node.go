// Package node implements the edge node state machine (C5) and its publish
// scheduler (C6): the disconnected/connected.dead/connected.born lifecycle,
// the devices a node owns, and report-by-exception publishing at each
// metric's configured scan rate.
package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/device"
	"github.com/joyautomation/synapse-go/event"
	"github.com/joyautomation/synapse-go/internal/syncutil"
	"github.com/joyautomation/synapse-go/log"
	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/mqttadapter"
	"github.com/joyautomation/synapse-go/seqnum"
	"github.com/joyautomation/synapse-go/spb"
)

// State is a Node's disconnected/connected.dead/connected.born state (I1:
// exactly one holds at any moment).
type State uint8

const (
	Disconnected State = iota
	ConnectedDead
	ConnectedBorn
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedDead:
		return "connected.dead"
	case ConnectedBorn:
		return "connected.born"
	default:
		return "unknown"
	}
}

// ErrConfig is returned by New when GroupID or ID is empty (spec §7
// Config: "thrown at construction").
var ErrConfig = errors.New("node: group id and edge node id are required")

// ErrInvalidTransition names spec §7's InvalidTransition kind. No operation
// returns it: a failed guard is logged at Info, leaves the state unchanged
// and the operation returns a nil error.
var ErrInvalidTransition = errors.New("node: invalid transition")

// Config is the identity and transport configuration for a Node.
type Config struct {
	GroupID string
	ID      string
	// Version defaults to "spBv1.0" if empty.
	Version string

	Transport config.TransportConfig
	Compress  spb.CompressOptions

	// ConnectTimeout bounds Connect(); <= 0 uses 30s.
	ConnectTimeout time.Duration
	// DefaultScanRate is used by any metric whose own ScanRate is zero.
	DefaultScanRate time.Duration
}

// FromNodeConfig converts loaded YAML configuration into a node.Config.
func FromNodeConfig(cfg *config.NodeConfig) Config {
	return Config{
		GroupID:         cfg.GroupID,
		ID:              cfg.EdgeNodeID,
		Version:         cfg.Version,
		Transport:       cfg.Transport,
		Compress:        spb.CompressOptions{Enabled: cfg.Compress.Enabled, Algorithm: cfg.Compress.Algorithm},
		ConnectTimeout:  cfg.ConnectTimeout,
		DefaultScanRate: cfg.DefaultScanRate,
	}
}

// Node is an edge node: a set of metrics and devices streamed to a broker
// under the Sparkplug B edge node lifecycle.
type Node struct {
	mu sync.Mutex

	groupID string
	id      string
	version string

	transport       config.TransportConfig
	compress        spb.CompressOptions
	connectTimeout  time.Duration
	defaultScanRate time.Duration

	metrics map[string]*metric.Metric
	order   []string

	devices           map[string]*device.Device
	deviceOrder       []string
	deviceMetricOrder map[string][]string

	seq seqnum.Pair

	state State

	client   *mqttadapter.Client
	cancel   context.CancelFunc
	schedCtx context.Context

	// dialGate serializes session establishment: Connect and the rebirth
	// goroutine spawned by requestRebirth both call dial, and this resettable
	// Once (reset when a session ends, in Disconnect and
	// handleTransportFailure) ensures only one of them can actually dial at a
	// time, the same restart-cycle use case syncutil.Once's doc comment
	// describes.
	dialGate syncutil.Once

	tickers map[time.Duration]*time.Ticker

	ev *event.Bus[Event]
}

// Option configures a Node at construction time.
type Option func(*Node)

// WithMetric adds a node-owned metric.
func WithMetric(m *metric.Metric) Option {
	return func(n *Node) {
		n.metrics[m.Name] = m
		n.order = append(n.order, m.Name)
	}
}

// WithDevice adds a device owned by the node, with its initial metric set.
// Metrics are registered in the order given, which becomes that device's
// stable publish order.
func WithDevice(id string, metrics ...*metric.Metric) Option {
	return func(n *Node) {
		d := device.New(id)

		names := make([]string, 0, len(metrics))
		for _, m := range metrics {
			d.Metrics[m.Name] = m
			names = append(names, m.Name)
		}

		n.devices[id] = d
		n.deviceOrder = append(n.deviceOrder, id)
		n.deviceMetricOrder[id] = names
	}
}

// New returns a disconnected Node (S0). It returns ErrConfig if cfg is
// missing GroupID or ID.
func New(cfg Config, opts ...Option) (*Node, error) {
	if cfg.GroupID == "" || cfg.ID == "" {
		return nil, ErrConfig
	}

	version := cfg.Version
	if version == "" {
		version = "spBv1.0"
	}

	n := &Node{
		groupID:           cfg.GroupID,
		id:                cfg.ID,
		version:           version,
		transport:         cfg.Transport,
		compress:          cfg.Compress,
		connectTimeout:    cfg.ConnectTimeout,
		defaultScanRate:   cfg.DefaultScanRate,
		metrics:           make(map[string]*metric.Metric),
		devices:           make(map[string]*device.Device),
		deviceMetricOrder: make(map[string][]string),
		tickers:           make(map[time.Duration]*time.Ticker),
		ev:                event.NewBus[Event](),
		state:             Disconnected,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// NewFromConfig builds a Node from loaded YAML configuration, seeding its
// metrics/devices from cfg.Metrics/cfg.Devices, then applies opts (for
// producer callables, which can't be expressed in YAML).
func NewFromConfig(cfg *config.NodeConfig, opts ...Option) (*Node, error) {
	n, err := New(FromNodeConfig(cfg))
	if err != nil {
		return nil, err
	}

	for _, mc := range cfg.Metrics {
		m, err := metric.FromConfig(mc)
		if err != nil {
			return nil, err
		}

		WithMetric(m)(n)
	}

	for _, dc := range cfg.Devices {
		metrics := make([]*metric.Metric, 0, len(dc.Metrics))

		for _, mc := range dc.Metrics {
			m, err := metric.FromConfig(mc)
			if err != nil {
				return nil, err
			}

			metrics = append(metrics, m)
		}

		WithDevice(dc.ID, metrics...)(n)
	}

	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// State reports n's current lifecycle state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.state
}

// Events returns n's event bus.
func (n *Node) Events() *event.Bus[Event] {
	return n.ev
}

func (n *Node) topic(cmd spb.CommandType, deviceID string) string {
	return spb.Topic{Version: n.version, GroupID: n.groupID, Command: cmd, EdgeNode: n.id, DeviceID: deviceID}.String()
}

// Connect dials the broker with the NDEATH-as-will registered, subscribes
// the node's NCMD/DCMD/STATE filters, and automatically births the node and
// every configured device (S0 -> S1 -> S2), matching the table in spec
// §4.5. Connect is a no-op (InvalidTransition, logged) unless n is
// currently disconnected.
func (n *Node) Connect(ctx context.Context) error {
	n.mu.Lock()
	if n.state != Disconnected {
		n.mu.Unlock()
		log.Info("node: Connect invalid transition", "state", n.state.String())

		return nil
	}
	n.mu.Unlock()

	if err := n.dial(ctx); err != nil {
		return err
	}

	if err := n.Birth(ctx); err != nil {
		return err
	}

	n.mu.Lock()
	ids := append([]string(nil), n.deviceOrder...)
	n.mu.Unlock()

	for _, id := range ids {
		if _, err := n.BirthDevice(ctx, id); err != nil {
			log.Warn("node: BirthDevice during Connect failed", "device", id, "err", err)
		}
	}

	return nil
}

// dial opens a fresh MQTT session: bumps bdSeq and resets seq for the new
// session, registers NDEATH as the will, connects, starts the event loop,
// and subscribes the node's control filters. It leaves n in connected.dead;
// callers (Connect, requestRebirth) are responsible for Birth afterward.
func (n *Node) dial(ctx context.Context) error {
	entered := false

	n.dialGate.Do(func() { entered = true })

	if !entered {
		return errors.New("node: session establishment already in progress")
	}

	n.mu.Lock()
	n.seq.NewSession()
	bdSeq := n.seq.BdSeq
	n.mu.Unlock()

	now := uint64(time.Now().UnixMilli())
	will := &mqttadapter.Will{
		Topic:   n.topic(spb.NDEATH, ""),
		Payload: spb.EncodeWill(now, uint64(bdSeq)),
	}

	timeout := n.connectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	client, err := mqttadapter.Dial(cctx, &n.transport, will)
	cancel()

	if err != nil {
		return err
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())

	n.mu.Lock()
	n.client = client
	n.state = ConnectedDead
	n.cancel = loopCancel
	n.schedCtx = loopCtx
	n.mu.Unlock()

	n.emit(Event{Kind: EventConnected})

	go n.eventLoop(loopCtx)

	if err := n.subscribeControl(ctx); err != nil {
		log.Warn("node: subscribe failed", "err", err)
	}

	return nil
}

func (n *Node) subscribeControl(ctx context.Context) error {
	if err := n.client.Subscribe(ctx, n.topic(spb.NCMD, ""), 0, ""); err != nil {
		return err
	}

	if err := n.client.Subscribe(ctx, n.topic(spb.DCMD, "+"), 0, ""); err != nil {
		return err
	}

	return n.client.Subscribe(ctx, "STATE/#", 1, "")
}

func (n *Node) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-n.client.Events():
			if !ok {
				return
			}

			switch e.Kind {
			case mqttadapter.EventMessage:
				n.handleMessage(e.Topic, e.Payload)
			case mqttadapter.EventDisconnect:
				n.handleTransportFailure(e.Err)
				return
			case mqttadapter.EventClose:
				return
			}
		}
	}
}

func (n *Node) handleTransportFailure(err error) {
	n.mu.Lock()
	n.stopTickersLocked()
	n.state = Disconnected
	n.mu.Unlock()

	n.dialGate.Reset()

	n.emit(Event{Kind: EventError, Err: err})
	n.emit(Event{Kind: EventClosed})
}

func (n *Node) handleMessage(topic string, payload []byte) {
	n.emit(Event{Kind: EventMessage, Topic: topic, Payload: nil})

	t, err := spb.ParseTopic(topic)
	if err != nil {
		log.Warn("node: invalid topic", "topic", topic, "err", err)
		return
	}

	switch t.Command {
	case spb.NCMD:
		n.handleNCMD(payload)
	case spb.DCMD:
		p, err := spb.Decode(payload)
		if err != nil {
			log.Warn("node: invalid DCMD payload", "err", err)
			return
		}

		n.emit(Event{Kind: EventDCmd, Topic: topic, Device: t.DeviceID, Payload: p})
	}
}

// Disconnect tears the node down: stops scan timers, publishes NDEATH if
// born, and closes the MQTT connection, returning to S0. It is a no-op if
// already disconnected.
func (n *Node) Disconnect(ctx context.Context) error {
	n.mu.Lock()
	if n.state == Disconnected {
		n.mu.Unlock()
		return nil
	}

	born := n.state == ConnectedBorn
	n.mu.Unlock()

	if born {
		if err := n.Death(ctx); err != nil {
			log.Warn("node: Death during Disconnect failed", "err", err)
		}
	}

	n.mu.Lock()
	n.stopTickersLocked()

	if n.cancel != nil {
		n.cancel()
	}

	client := n.client
	n.state = Disconnected
	n.mu.Unlock()

	n.dialGate.Reset()

	if client != nil {
		client.End(250)
	}

	n.emit(Event{Kind: EventDisconnected})
	n.ev.Close()

	return nil
}
