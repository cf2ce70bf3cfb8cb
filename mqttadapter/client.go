// Package mqttadapter abstracts the underlying MQTT client (C2): connect
// with last-will, publish, subscribe (with optional $share/<group>/
// wrapping), and a single event stream covering connect/message/disconnect/
// close/error. node.Node and host.Host are the only callers; nothing here
// knows about Sparkplug semantics.
package mqttadapter

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/log"
)

func init() {
	mqtt.ERROR = log.ErrorLogger()
	mqtt.CRITICAL = log.ErrorLogger()
	mqtt.WARN = log.WarnLogger()
	mqtt.DEBUG = log.DebugLogger()
}

// EventKind enumerates the kinds of event a Client emits on its event
// stream.
type EventKind uint8

const (
	EventConnect EventKind = iota
	EventMessage
	EventDisconnect
	EventClose
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventMessage:
		return "message"
	case EventDisconnect:
		return "disconnect"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one item delivered on a Client's event channel.
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
	Err     error
}

// Will configures the MQTT last-will registered at dial time.
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Client wraps a paho mqtt.Client. Every connect/message/disconnect callback
// paho invokes is funneled onto one buffered channel rather than left to run
// on paho's own callback goroutines, so a Node or Host can serialize all of
// its state transitions by draining that one channel from its owning
// goroutine (spec §5).
type Client struct {
	mq     mqtt.Client
	events chan Event
}

// defaultConnectTimeout is used when the caller's transport config leaves
// ConnectTimeout unset, matching spec §5's documented default.
const defaultConnectTimeout = 30 * time.Second

// NewFunc constructs the underlying paho client from a *mqtt.ClientOptions.
// It is a package variable, not a Dial parameter, so tests can substitute
// mqttadapter/mqttmock.New for the real paho dialer without every call site
// threading a factory through; production code never reassigns it.
var NewFunc = mqtt.NewClient

// Dial builds a paho client from transport (adding will as its last-will, if
// non-nil), connects, and blocks until the broker has connacked or
// transport.ConnectTimeout (default 30s) elapses. The returned Client's
// Events channel begins receiving EventConnect/EventMessage/EventDisconnect
// as soon as Dial returns.
func Dial(ctx context.Context, transport *config.TransportConfig, will *Will) (*Client, error) {
	opts := transport.ClientOptions()

	c := &Client{events: make(chan Event, 64)}

	if will != nil {
		opts.SetWill(will.Topic, string(will.Payload), will.QoS, will.Retain)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		c.emit(Event{Kind: EventConnect})
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.emit(Event{Kind: EventDisconnect, Err: err})
	})

	c.mq = NewFunc(opts)

	return c, c.connect(ctx, transport.ConnectTimeout)
}

// New wraps an already-constructed mqtt.Client, for a caller that wants
// direct control over the underlying client rather than going through
// Dial's paho.ClientOptions construction. This module's tests substitute
// NewFunc instead of calling New.
func New(mq mqtt.Client) *Client {
	return &Client{mq: mq, events: make(chan Event, 64)}
}

func (c *Client) connect(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token := c.mq.Connect()

	return waitToken(tctx, token)
}

// Connect (re)connects an existing Client, e.g. after a prior Disconnect/End
// during a rebirth cycle. timeout <= 0 uses the default of 30s.
func (c *Client) Connect(ctx context.Context, timeout time.Duration) error {
	return c.connect(ctx, timeout)
}

// Events returns the Client's event stream. Callers should drain it
// continuously from their single owning goroutine.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) emit(e Event) {
	select {
	case c.events <- e:
	default:
		// Slow consumer: drop rather than block paho's callback goroutine
		// forever. A Node/Host draining its own Events channel promptly
		// (spec §5's single serialization domain) never hits this path in
		// practice; it exists as a backstop against a wedged consumer.
	}
}

// Publish publishes payload to topic.
func (c *Client) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	token := c.mq.Publish(topic, qos, retain, payload)

	return waitToken(ctx, token)
}

// Subscribe subscribes to filter at qos. If sharedGroup is non-empty, the
// filter is wrapped as "$share/<sharedGroup>/<filter>" so the broker load-
// balances delivery across every client sharing that group (MQTT5 shared
// subscriptions). Every message delivered to this subscription is emitted
// as an EventMessage on Events().
func (c *Client) Subscribe(ctx context.Context, filter string, qos byte, sharedGroup string) error {
	topic := filter
	if sharedGroup != "" {
		topic = "$share/" + sharedGroup + "/" + filter
	}

	token := c.mq.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		c.emit(Event{Kind: EventMessage, Topic: msg.Topic(), Payload: msg.Payload()})
	})

	return waitToken(ctx, token)
}

// Unsubscribe unsubscribes from filters.
func (c *Client) Unsubscribe(ctx context.Context, filters ...string) error {
	token := c.mq.Unsubscribe(filters...)

	return waitToken(ctx, token)
}

// End closes the connection with a quiesce period of quiesceMs milliseconds,
// then emits EventClose.
func (c *Client) End(quiesceMs uint) {
	c.mq.Disconnect(quiesceMs)
	c.emit(Event{Kind: EventClose})
}

// IsConnected reports whether the underlying client believes itself
// connected.
func (c *Client) IsConnected() bool {
	return c.mq.IsConnected()
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Done():
	}

	return t.Error()
}
