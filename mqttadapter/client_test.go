package mqttadapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/mqttadapter"
	"github.com/joyautomation/synapse-go/mqttadapter/mqttmock"
)

func withMock(t *testing.T) *mqttmock.Handle {
	t.Helper()

	h := &mqttmock.Handle{}

	prev := mqttadapter.NewFunc
	mqttadapter.NewFunc = h.Factory()
	t.Cleanup(func() { mqttadapter.NewFunc = prev })

	return h
}

func TestDialEmitsConnectEvent(t *testing.T) {
	withMock(t)

	transport := &config.TransportConfig{Broker: "tcp://broker.example:1883"}

	c, err := mqttadapter.Dial(context.Background(), transport, nil)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-c.Events():
		if e.Kind != mqttadapter.EventConnect {
			t.Fatalf("event kind = %v, want EventConnect", e.Kind)
		}
	default:
		t.Fatal("no connect event emitted")
	}
}

func TestDialRegistersWill(t *testing.T) {
	h := withMock(t)

	transport := &config.TransportConfig{Broker: "tcp://broker.example:1883"}
	will := &mqttadapter.Will{Topic: "spBv1.0/G/NDEATH/N", Payload: []byte("x"), QoS: 0, Retain: false}

	if _, err := mqttadapter.Dial(context.Background(), transport, will); err != nil {
		t.Fatal(err)
	}

	r := h.Client().OptionsReader()
	if r.WillTopic() != will.Topic {
		t.Fatalf("will topic = %q, want %q", r.WillTopic(), will.Topic)
	}
}

func TestSubscribeDeliversMessageEvent(t *testing.T) {
	h := withMock(t)

	transport := &config.TransportConfig{Broker: "tcp://broker.example:1883"}

	c, err := mqttadapter.Dial(context.Background(), transport, nil)
	if err != nil {
		t.Fatal(err)
	}
	<-c.Events() // drain the connect event

	ctx := context.Background()
	if err := c.Subscribe(ctx, "spBv1.0/+/NBIRTH/+", 0, ""); err != nil {
		t.Fatal(err)
	}

	h.Client().Deliver("spBv1.0/G/NBIRTH/N", []byte("payload"))

	select {
	case e := <-c.Events():
		if e.Kind != mqttadapter.EventMessage || e.Topic != "spBv1.0/G/NBIRTH/N" {
			t.Fatalf("event = %+v, want message on spBv1.0/G/NBIRTH/N", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no message event delivered")
	}
}

func TestSubscribeSharedGroupWrapsFilter(t *testing.T) {
	h := withMock(t)

	transport := &config.TransportConfig{Broker: "tcp://broker.example:1883"}

	c, err := mqttadapter.Dial(context.Background(), transport, nil)
	if err != nil {
		t.Fatal(err)
	}
	<-c.Events()

	if err := c.Subscribe(context.Background(), "spBv1.0/+/NDATA/#", 0, "hosts"); err != nil {
		t.Fatal(err)
	}

	filters := h.Client().Filters()
	if len(filters) != 1 || filters[0] != "$share/hosts/spBv1.0/+/NDATA/#" {
		t.Fatalf("filters = %v, want [$share/hosts/spBv1.0/+/NDATA/#]", filters)
	}

	h.Client().Deliver("spBv1.0/G/NDATA/N", []byte("x"))

	select {
	case e := <-c.Events():
		if e.Kind != mqttadapter.EventMessage {
			t.Fatalf("event kind = %v, want EventMessage", e.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("shared-group subscription did not match plain topic")
	}
}

func TestPublishRecordsPayload(t *testing.T) {
	h := withMock(t)

	transport := &config.TransportConfig{Broker: "tcp://broker.example:1883"}

	c, err := mqttadapter.Dial(context.Background(), transport, nil)
	if err != nil {
		t.Fatal(err)
	}
	<-c.Events()

	if err := c.Publish(context.Background(), "spBv1.0/G/NDATA/N", 0, false, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	p, ok := h.Client().LastPublished()
	if !ok || p.Topic != "spBv1.0/G/NDATA/N" || string(p.Payload) != "hello" {
		t.Fatalf("last published = %+v, ok=%v", p, ok)
	}
}

func TestEndEmitsCloseEvent(t *testing.T) {
	withMock(t)

	transport := &config.TransportConfig{Broker: "tcp://broker.example:1883"}

	c, err := mqttadapter.Dial(context.Background(), transport, nil)
	if err != nil {
		t.Fatal(err)
	}
	<-c.Events()

	c.End(0)

	select {
	case e := <-c.Events():
		if e.Kind != mqttadapter.EventClose {
			t.Fatalf("event kind = %v, want EventClose", e.Kind)
		}
	default:
		t.Fatal("no close event emitted")
	}

	if c.IsConnected() {
		t.Fatal("still connected after End")
	}
}
