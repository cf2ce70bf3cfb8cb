// Package mqttmock provides a deterministic in-memory mqtt.Client for
// tests, grounded on the teacher's mock.MockClient but extended with
// explicit test-driven delivery (Deliver, LoseConnection) and MQTT
// wildcard-filter matching, since the state machines under test subscribe
// with "+"/"#" filters rather than exact topics.
package mqttmock

import (
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Published records one call to Publish.
type Published struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

type subscription struct {
	filter   string
	callback mqtt.MessageHandler
}

// Client is an in-memory mqtt.Client. The zero value is not usable; use
// New.
type Client struct {
	mu sync.Mutex

	opts      *mqtt.ClientOptions
	connected bool

	subs    []subscription
	history []Published
}

// New returns a Client built from opts. opts' OnConnectHandler and
// ConnectionLostHandler, if set, are invoked by Connect and LoseConnection
// respectively, matching how mqttadapter.Dial wires them for a real paho
// client.
func New(opts *mqtt.ClientOptions) *Client {
	return &Client{opts: opts}
}

// Handle resolves the Client a swapped mqttadapter.NewFunc constructs,
// once Dial has actually run it: the Client doesn't exist yet at the point
// a test installs the factory, only after the code under test dials.
type Handle struct {
	mu     sync.Mutex
	client *Client
}

// Factory returns a mqttadapter.NewFunc-compatible constructor that records
// the Client it builds on h.
func (h *Handle) Factory() func(*mqtt.ClientOptions) mqtt.Client {
	return func(o *mqtt.ClientOptions) mqtt.Client {
		c := New(o)

		h.mu.Lock()
		h.client = c
		h.mu.Unlock()

		return c
	}
}

// Client returns the most recently constructed Client, or nil if Dial has
// not run yet.
func (h *Handle) Client() *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.client
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

func (c *Client) IsConnectionOpen() bool {
	return c.IsConnected()
}

func (c *Client) Connect() mqtt.Token {
	c.mu.Lock()
	c.connected = true
	h := c.opts.OnConnectHandler()
	c.mu.Unlock()

	if h != nil {
		h(c)
	}

	return &mqtt.DummyToken{}
}

func (c *Client) Disconnect(_ uint) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var b []byte

	switch v := payload.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	}

	c.mu.Lock()
	c.history = append(c.history, Published{Topic: topic, Payload: b, QoS: qos, Retain: retained})
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	c.subs = append(c.subs, subscription{filter: topic, callback: callback})
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	for topic := range filters {
		c.subs = append(c.subs, subscription{filter: topic, callback: callback})
	}
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	remove := make(map[string]bool, len(topics))
	for _, t := range topics {
		remove[t] = true
	}

	kept := c.subs[:0]
	for _, s := range c.subs {
		if !remove[s.filter] {
			kept = append(kept, s)
		}
	}
	c.subs = kept
	c.mu.Unlock()

	return &mqtt.DummyToken{}
}

func (c *Client) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.mu.Lock()
	c.subs = append(c.subs, subscription{filter: topic, callback: callback})
	c.mu.Unlock()
}

func (c *Client) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.NewOptionsReader(c.opts)
}

// Deliver simulates the broker delivering payload on topic: every
// subscription whose filter matches topic (per MQTT wildcard rules) has its
// callback invoked, synchronously, in subscription order.
func (c *Client) Deliver(topic string, payload []byte) {
	c.mu.Lock()
	matches := make([]subscription, 0, 1)
	for _, s := range c.subs {
		if topicMatch(s.filter, topic) {
			matches = append(matches, s)
		}
	}
	c.mu.Unlock()

	for _, s := range matches {
		s.callback(c, &message{topic: topic, payload: payload})
	}
}

// LoseConnection simulates an ungraceful disconnect, invoking the
// ConnectionLostHandler registered at construction.
func (c *Client) LoseConnection(err error) {
	c.mu.Lock()
	c.connected = false
	h := c.opts.ConnectionLostHandler()
	c.mu.Unlock()

	if h != nil {
		h(c, err)
	}
}

// Published returns every Publish call recorded so far, oldest first.
func (c *Client) Published() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Published(nil), c.history...)
}

// LastPublished returns the most recent Publish call, and false if none has
// happened yet.
func (c *Client) LastPublished() (Published, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.history) == 0 {
		return Published{}, false
	}

	return c.history[len(c.history)-1], true
}

// Filters returns the filter strings of every active subscription, in
// subscription order.
func (c *Client) Filters() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.subs))
	for i, s := range c.subs {
		out[i] = s.filter
	}

	return out
}

// topicMatch reports whether topic matches filter under MQTT wildcard
// rules: "+" matches exactly one level, "#" (only valid as the final level)
// matches all remaining levels. filter may itself be wrapped in
// "$share/<group>/", which is stripped before matching.
func topicMatch(filter, topic string) bool {
	if rest, ok := strings.CutPrefix(filter, "$share/"); ok {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			filter = rest[i+1:]
		}
	}

	fParts := strings.Split(filter, "/")
	tParts := strings.Split(topic, "/")

	for i, fp := range fParts {
		if fp == "#" {
			return true
		}

		if i >= len(tParts) {
			return false
		}

		if fp != "+" && fp != tParts[i] {
			return false
		}
	}

	return len(fParts) == len(tParts)
}

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Ack()              {}
func (m *message) Topic() string     { return m.topic }
func (m *message) Payload() []byte   { return m.payload }
