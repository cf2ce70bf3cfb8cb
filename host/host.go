// Package host implements the primary host application state machine (C7)
// and its topology mirror (C8): STATE publish/will, per-command-type
// subscriptions (optionally shared for NDATA/DDATA), and rebirth requests on
// a protocol gap.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/event"
	"github.com/joyautomation/synapse-go/log"
	"github.com/joyautomation/synapse-go/mqttadapter"
	"github.com/joyautomation/synapse-go/spb"
)

// State is a Host's disconnected/connected lifecycle state.
type State uint8

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// ErrConfig is returned by New when PrimaryHostID is empty (spec §7 Config).
var ErrConfig = errors.New("host: primary host id is required")

const (
	stateOnline  = "ONLINE"
	stateOffline = "OFFLINE"
)

// Config is the identity and transport configuration for a Host.
type Config struct {
	PrimaryHostID string
	// Version defaults to "spBv1.0" if empty.
	Version string

	Transport config.TransportConfig

	// SharedSubscriptionGroup, if set, wraps the NDATA/DDATA filters as
	// $share/<group>/<filter> (spec §4.7).
	SharedSubscriptionGroup string

	// ConnectTimeout bounds Connect(); <= 0 uses 30s.
	ConnectTimeout time.Duration
}

// FromHostConfig converts loaded YAML configuration into a host.Config.
func FromHostConfig(cfg *config.HostConfig) Config {
	return Config{
		PrimaryHostID:           cfg.PrimaryHostID,
		Version:                 cfg.Version,
		Transport:               cfg.Transport,
		SharedSubscriptionGroup: cfg.SharedSubscriptionGroup,
		ConnectTimeout:          cfg.ConnectTimeout,
	}
}

// Host is a Sparkplug primary host application: it publishes its own STATE,
// subscribes the full Sparkplug namespace, and mirrors every node/device it
// observes into a Topology.
type Host struct {
	mu sync.Mutex

	primaryHostID  string
	version        string
	transport      config.TransportConfig
	sharedGroup    string
	connectTimeout time.Duration

	state State

	client *mqttadapter.Client
	cancel context.CancelFunc

	ev   *event.Bus[Event]
	topo *Topology
}

// New returns a disconnected Host. It returns ErrConfig if cfg.PrimaryHostID
// is empty.
func New(cfg Config) (*Host, error) {
	if cfg.PrimaryHostID == "" {
		return nil, ErrConfig
	}

	version := cfg.Version
	if version == "" {
		version = "spBv1.0"
	}

	return &Host{
		primaryHostID:  cfg.PrimaryHostID,
		version:        version,
		transport:      cfg.Transport,
		sharedGroup:    cfg.SharedSubscriptionGroup,
		connectTimeout: cfg.ConnectTimeout,
		state:          Disconnected,
		ev:             event.NewBus[Event](),
		topo:           newTopology(),
	}, nil
}

// NewFromConfig builds a Host from loaded YAML configuration.
func NewFromConfig(cfg *config.HostConfig) (*Host, error) {
	return New(FromHostConfig(cfg))
}

// State reports h's current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Events returns h's event bus.
func (h *Host) Events() *event.Bus[Event] {
	return h.ev
}

// Topology returns h's live group/node/device mirror.
func (h *Host) Topology() *Topology {
	return h.topo
}

func (h *Host) stateTopic() string {
	return spb.StateTopic(h.primaryHostID)
}

// Connect dials the broker with a retained STATE=OFFLINE will, publishes
// STATE=ONLINE on connack, and subscribes the full Sparkplug namespace
// (spec §4.7). Connect is a no-op (InvalidTransition, logged) unless h is
// currently disconnected.
func (h *Host) Connect(ctx context.Context) error {
	h.mu.Lock()
	if h.state != Disconnected {
		h.mu.Unlock()
		log.Info("host: Connect invalid transition", "state", h.state.String())

		return nil
	}
	h.mu.Unlock()

	will := &mqttadapter.Will{
		Topic:   h.stateTopic(),
		Payload: []byte(stateOffline),
		QoS:     1,
		Retain:  true,
	}

	timeout := h.connectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	client, err := mqttadapter.Dial(cctx, &h.transport, will)
	cancel()

	if err != nil {
		return err
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())

	h.mu.Lock()
	h.client = client
	h.state = Connected
	h.cancel = loopCancel
	h.mu.Unlock()

	if err := client.Publish(ctx, h.stateTopic(), 1, true, []byte(stateOnline)); err != nil {
		log.Warn("host: STATE publish failed", "err", err)
	}

	h.emit(Event{Kind: EventConnected})
	h.emit(Event{Kind: EventState, Topic: h.stateTopic(), State: stateOnline})

	go h.eventLoop(loopCtx)

	if err := h.subscribeAll(ctx); err != nil {
		log.Warn("host: subscribe failed", "err", err)
	}

	return nil
}

func (h *Host) subscribeAll(ctx context.Context) error {
	if err := h.client.Subscribe(ctx, "STATE/#", 1, ""); err != nil {
		return err
	}

	plain := []string{
		h.version + "/+/" + string(spb.NBIRTH) + "/+",
		h.version + "/+/" + string(spb.NCMD) + "/+",
		h.version + "/+/" + string(spb.NDEATH) + "/+",
		h.version + "/+/" + string(spb.DBIRTH) + "/+",
		h.version + "/+/" + string(spb.DCMD) + "/+",
		h.version + "/+/" + string(spb.DDEATH) + "/+",
	}

	for _, f := range plain {
		if err := h.client.Subscribe(ctx, f, 0, ""); err != nil {
			return err
		}
	}

	shared := []string{
		h.version + "/+/" + string(spb.NDATA) + "/#",
		h.version + "/+/" + string(spb.DDATA) + "/#",
	}

	for _, f := range shared {
		if err := h.client.Subscribe(ctx, f, 0, h.sharedGroup); err != nil {
			return err
		}
	}

	return nil
}

func (h *Host) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-h.client.Events():
			if !ok {
				return
			}

			switch e.Kind {
			case mqttadapter.EventMessage:
				h.handleMessage(e.Topic, e.Payload)
			case mqttadapter.EventDisconnect:
				h.handleTransportFailure(e.Err)
				return
			case mqttadapter.EventClose:
				return
			}
		}
	}
}

func (h *Host) handleTransportFailure(err error) {
	h.mu.Lock()
	h.state = Disconnected
	h.mu.Unlock()

	h.emit(Event{Kind: EventError, Err: err})
	h.emit(Event{Kind: EventClosed})
}

func (h *Host) handleMessage(topic string, payload []byte) {
	h.emit(Event{Kind: EventMessage, Topic: topic})

	t, err := spb.ParseTopic(topic)
	if err != nil {
		log.Warn("host: invalid topic", "topic", topic, "err", err)
		return
	}

	if t.State {
		h.emit(Event{Kind: EventState, Topic: topic, State: string(payload)})
		return
	}

	switch t.Command {
	case spb.NBIRTH:
		h.handleNBirth(t, payload)
	case spb.DBIRTH:
		h.handleDBirth(t, payload)
	case spb.NDATA:
		h.handleNData(t, payload)
	case spb.DDATA:
		h.handleDData(t, payload)
	case spb.NDEATH:
		h.handleNDeath(t)
	case spb.DDEATH:
		h.handleDDeath(t)
	case spb.NCMD:
		h.decodeAndEmit(EventNCmd, t, payload)
	case spb.DCMD:
		h.decodeAndEmit(EventDCmd, t, payload)
	}
}

func (h *Host) decodeAndEmit(kind EventKind, t spb.Topic, payload []byte) {
	p, err := spb.Decode(payload)
	if err != nil {
		log.Warn("host: invalid payload", "topic", t.String(), "err", err)
		return
	}

	h.emit(Event{Kind: kind, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode, Device: t.DeviceID, Payload: p})
}

func (h *Host) handleNBirth(t spb.Topic, payload []byte) {
	p, err := spb.Decode(payload)
	if err != nil {
		log.Warn("host: invalid NBIRTH payload", "err", err)
		return
	}

	h.topo.applyNBirth(t.GroupID, t.EdgeNode, p)
	h.emit(Event{Kind: EventNBirth, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode, Payload: p})
}

func (h *Host) handleDBirth(t spb.Topic, payload []byte) {
	p, err := spb.Decode(payload)
	if err != nil {
		log.Warn("host: invalid DBIRTH payload", "err", err)
		return
	}

	if !h.topo.applyDBirth(t.GroupID, t.EdgeNode, t.DeviceID, p) {
		h.requestRebirth(t.GroupID, t.EdgeNode)
		return
	}

	h.emit(Event{Kind: EventDBirth, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode, Device: t.DeviceID, Payload: p})
}

func (h *Host) handleNData(t spb.Topic, payload []byte) {
	p, err := spb.Decode(payload)
	if err != nil {
		log.Warn("host: invalid NDATA payload", "err", err)
		return
	}

	if !h.topo.applyNData(t.GroupID, t.EdgeNode, p) {
		h.requestRebirth(t.GroupID, t.EdgeNode)
		return
	}

	h.emit(Event{Kind: EventNData, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode, Payload: p})
}

func (h *Host) handleDData(t spb.Topic, payload []byte) {
	p, err := spb.Decode(payload)
	if err != nil {
		log.Warn("host: invalid DDATA payload", "err", err)
		return
	}

	if !h.topo.applyDData(t.GroupID, t.EdgeNode, t.DeviceID, p) {
		h.requestRebirth(t.GroupID, t.EdgeNode)
		return
	}

	h.emit(Event{Kind: EventDData, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode, Device: t.DeviceID, Payload: p})
}

func (h *Host) handleNDeath(t spb.Topic) {
	h.topo.applyNDeath(t.GroupID, t.EdgeNode)
	h.emit(Event{Kind: EventNDeath, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode})
}

func (h *Host) handleDDeath(t spb.Topic) {
	h.topo.applyDDeath(t.GroupID, t.EdgeNode, t.DeviceID)
	h.emit(Event{Kind: EventDDeath, Topic: t.String(), Group: t.GroupID, Node: t.EdgeNode, Device: t.DeviceID})
}

// requestRebirth publishes an NCMD requesting the named node rebirth itself
// (spec §4.8's rebirth request, triggered by a ProtocolGap per §7).
func (h *Host) requestRebirth(groupID, nodeID string) {
	h.mu.Lock()
	client := h.client
	version := h.version
	h.mu.Unlock()

	if client == nil {
		return
	}

	topic := spb.Topic{Version: version, GroupID: groupID, Command: spb.NCMD, EdgeNode: nodeID}.String()

	payload, err := spb.EncodeData(uint64(time.Now().UnixMilli()), []spb.Metric{{
		Name:         "Node Control/Rebirth",
		DataType:     spb.Boolean,
		BooleanValue: true,
	}}, 0, spb.CompressOptions{})
	if err != nil {
		log.Warn("host: encode rebirth request failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		log.Warn("host: rebirth request publish failed", "group", groupID, "node", nodeID, "err", err)
	}
}

// Disconnect publishes a retained STATE=OFFLINE, closes the MQTT connection
// and detaches every listener the host installed. It is a no-op if already
// disconnected. The retained STATE will covers an ungraceful disconnect.
func (h *Host) Disconnect(ctx context.Context) error {
	h.mu.Lock()
	if h.state == Disconnected {
		h.mu.Unlock()
		return nil
	}

	if h.cancel != nil {
		h.cancel()
	}

	client := h.client
	h.state = Disconnected
	h.mu.Unlock()

	if client != nil {
		if err := client.Publish(ctx, h.stateTopic(), 1, true, []byte(stateOffline)); err != nil {
			log.Warn("host: STATE publish failed", "err", err)
		}
		client.End(250)
	}

	h.emit(Event{Kind: EventDisconnected})
	h.ev.Close()

	return nil
}
