package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/host"
	"github.com/joyautomation/synapse-go/mqttadapter"
	"github.com/joyautomation/synapse-go/mqttadapter/mqttmock"
	"github.com/joyautomation/synapse-go/spb"
)

func withMock(t *testing.T) *mqttmock.Handle {
	t.Helper()

	h := &mqttmock.Handle{}

	prev := mqttadapter.NewFunc
	mqttadapter.NewFunc = h.Factory()
	t.Cleanup(func() { mqttadapter.NewFunc = prev })

	return h
}

func testTransport() config.TransportConfig {
	return config.TransportConfig{Broker: "tcp://broker.example:1883"}
}

func encodeBirth(t *testing.T, metrics []spb.Metric, seq uint64) []byte {
	t.Helper()

	b, err := spb.EncodeData(uint64(time.Now().UnixMilli()), metrics, seq, spb.CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// TestConnectPublishesOnlineAndSubscribes covers the host side of scenario 3
// setup: Connect registers the retained OFFLINE will, publishes ONLINE on
// connack, and subscribes the full Sparkplug namespace with NDATA/DDATA
// wrapped for the configured shared group.
func TestConnectPublishesOnlineAndSubscribes(t *testing.T) {
	mock := withMock(t)

	h, err := host.New(host.Config{
		PrimaryHostID:           "SCADA",
		Transport:               testTransport(),
		SharedSubscriptionGroup: "hosts",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	c := mock.Client()

	will := c.OptionsReader().WillTopic()
	if will != "STATE/SCADA" {
		t.Fatalf("will topic = %q, want STATE/SCADA", will)
	}

	p, ok := c.LastPublished()
	if !ok || p.Topic != "STATE/SCADA" || string(p.Payload) != "ONLINE" || !p.Retain {
		t.Fatalf("last published = %+v, ok=%v, want retained STATE/SCADA=ONLINE", p, ok)
	}

	filters := c.Filters()
	want := map[string]bool{
		"STATE/#":                           true,
		"spBv1.0/+/NBIRTH/+":                true,
		"spBv1.0/+/NCMD/+":                  true,
		"spBv1.0/+/NDEATH/+":                true,
		"spBv1.0/+/DBIRTH/+":                true,
		"spBv1.0/+/DCMD/+":                  true,
		"spBv1.0/+/DDEATH/+":                true,
		"$share/hosts/spBv1.0/+/NDATA/#":    true,
		"$share/hosts/spBv1.0/+/DDATA/#":    true,
	}
	if len(filters) != len(want) {
		t.Fatalf("subscribed %d filters, want %d: %v", len(filters), len(want), filters)
	}
	for _, f := range filters {
		if !want[f] {
			t.Fatalf("unexpected subscription filter %q", f)
		}
	}
}

// TestTopologyMirrorsBirthAndData covers scenario 3: a host observing
// NBIRTH, DBIRTH and NDATA builds the nested group/node/device mirror, and
// NDEATH tears the node back down.
func TestTopologyMirrorsBirthAndData(t *testing.T) {
	mock := withMock(t)

	h, err := host.New(host.Config{PrimaryHostID: "SCADA", Transport: testTransport()})
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	c := mock.Client()

	nbirth := encodeBirth(t, []spb.Metric{{Name: "x", DataType: spb.Int32, IntValue: 1}}, 0)
	c.Deliver("spBv1.0/G/NBIRTH/N", nbirth)

	dbirth := encodeBirth(t, []spb.Metric{{Name: "y", DataType: spb.Boolean, BooleanValue: true}}, 1)
	c.Deliver("spBv1.0/G/DBIRTH/N/D", dbirth)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		flat := h.Topology().Flatten()
		if len(flat) == 1 && len(flat[0].Nodes) == 1 && len(flat[0].Nodes[0].Devices) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	flat := h.Topology().Flatten()
	if len(flat) != 1 || flat[0].ID != "G" {
		t.Fatalf("flatten = %+v, want one group G", flat)
	}
	if len(flat[0].Nodes) != 1 || flat[0].Nodes[0].ID != "N" {
		t.Fatalf("group G nodes = %+v, want one node N", flat[0].Nodes)
	}
	if len(flat[0].Nodes[0].Devices) != 1 || flat[0].Nodes[0].Devices[0].ID != "D" {
		t.Fatalf("node N devices = %+v, want one device D", flat[0].Nodes[0].Devices)
	}

	ndata := encodeBirth(t, []spb.Metric{{Name: "x", DataType: spb.Int32, IntValue: 2}}, 2)
	c.Deliver("spBv1.0/G/NDATA/N", ndata)

	deadline = time.Now().Add(time.Second)
	var got int64
	for time.Now().Before(deadline) {
		flat := h.Topology().Flatten()
		v, _ := flat[0].Nodes[0].Metrics[0].Value.Int64()
		if v == 2 {
			got = v
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got != 2 {
		t.Fatalf("NDATA did not merge, x = %d, want 2", got)
	}

	ndeath := spb.EncodeNodeDeath(uint64(time.Now().UnixMilli()), 0)
	c.Deliver("spBv1.0/G/NDEATH/N", ndeath)

	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(h.Topology().Flatten()[0].Nodes) == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(h.Topology().Flatten()[0].Nodes) != 0 {
		t.Fatal("NDEATH did not remove node N")
	}
}

// TestProtocolGapTriggersRebirth covers P4: a DDATA for an unknown node
// triggers exactly one rebirth-requesting NCMD and is not applied to the
// topology.
func TestProtocolGapTriggersRebirth(t *testing.T) {
	mock := withMock(t)

	h, err := host.New(host.Config{PrimaryHostID: "SCADA", Transport: testTransport()})
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	c := mock.Client()

	before := len(c.Published())

	ddata := encodeBirth(t, []spb.Metric{{Name: "y", DataType: spb.Boolean, BooleanValue: true}}, 5)
	c.Deliver("spBv1.0/G/DDATA/N/D", ddata)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(c.Published()) > before {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	pubs := c.Published()
	if len(pubs) != before+1 {
		t.Fatalf("published %d new messages, want 1 rebirth NCMD: %+v", len(pubs)-before, pubs)
	}

	last := pubs[len(pubs)-1]
	if last.Topic != "spBv1.0/G/NCMD/N" {
		t.Fatalf("rebirth NCMD topic = %q, want spBv1.0/G/NCMD/N", last.Topic)
	}

	p, err := spb.Decode(last.Payload)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, m := range p.Metrics {
		if m.Name == "Node Control/Rebirth" && m.BooleanValue {
			found = true
		}
	}
	if !found {
		t.Fatal("rebirth NCMD missing Node Control/Rebirth=true")
	}

	if flat := h.Topology().Flatten(); len(flat) != 0 {
		t.Fatalf("unknown-node DDATA should not be applied, flatten = %+v", flat)
	}
}

// TestDisconnectDetachesListeners covers P3 on the host side: after
// Disconnect, a listener registered on the bus no longer observes further
// emits.
func TestDisconnectDetachesListeners(t *testing.T) {
	withMock(t)

	h, err := host.New(host.Config{PrimaryHostID: "SCADA", Transport: testTransport()})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := h.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	seen := 0
	h.Events().On(string(host.EventMessage), func(host.Event) { seen++ })

	if err := h.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}

	h.Events().Emit(string(host.EventMessage), host.Event{Kind: host.EventMessage})

	if seen != 0 {
		t.Fatalf("listener fired %d times after Disconnect, want 0", seen)
	}
}
