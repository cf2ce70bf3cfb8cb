package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/mqttadapter"
	"github.com/joyautomation/synapse-go/mqttadapter/mqttmock"
	"github.com/joyautomation/synapse-go/node"
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

func decodeMetric(t *testing.T, p *spb.Payload, name string) spb.Metric {
	t.Helper()

	for _, m := range p.Metrics {
		if m.Name == name {
			return m
		}
	}

	t.Fatalf("metric %q not found in payload %+v", name, p)
	return spb.Metric{}
}

// TestBirthDeathSequencing covers scenario 1: a node with one node-owned
// metric and one device publishes NBIRTH then DBIRTH on connect, in order,
// with seq 0 and 1; an unchanged tick publishes nothing; a changed metric
// publishes NDATA with seq 2.
func TestBirthDeathSequencing(t *testing.T) {
	mock := withMock(t)

	x := &metric.Metric{Name: "x", Value: metric.Int(spb.Int32, 0), ScanRate: 50 * time.Millisecond}
	y := &metric.Metric{Name: "y", Value: metric.Bool(true), ScanRate: 50 * time.Millisecond}

	n, err := node.New(node.Config{
		GroupID:   "G",
		ID:        "N",
		Transport: testTransport(),
	}, node.WithMetric(x), node.WithDevice("D", y))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := n.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	pubs := mock.Client().Published()
	if len(pubs) != 2 {
		t.Fatalf("published %d messages, want 2: %+v", len(pubs), pubs)
	}

	if pubs[0].Topic != "spBv1.0/G/NBIRTH/N" {
		t.Fatalf("pubs[0].Topic = %q, want NBIRTH", pubs[0].Topic)
	}
	if pubs[1].Topic != "spBv1.0/G/DBIRTH/N/D" {
		t.Fatalf("pubs[1].Topic = %q, want DBIRTH", pubs[1].Topic)
	}

	nbirth, err := spb.Decode(pubs[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if nbirth.Seq != 0 {
		t.Fatalf("NBIRTH seq = %d, want 0", nbirth.Seq)
	}
	decodeMetric(t, nbirth, "bdSeq")
	rebirth := decodeMetric(t, nbirth, "Node Control/Rebirth")
	if rebirth.BooleanValue {
		t.Fatal("NBIRTH Node Control/Rebirth should be false")
	}
	decodeMetric(t, nbirth, "x")

	dbirth, err := spb.Decode(pubs[1].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if dbirth.Seq != 1 {
		t.Fatalf("DBIRTH seq = %d, want 1", dbirth.Seq)
	}
	decodeMetric(t, dbirth, "y")

	time.Sleep(80 * time.Millisecond)
	if got := len(mock.Client().Published()); got != 2 {
		t.Fatalf("unchanged tick published %d messages, want still 2", got)
	}

	x.Value = metric.Int(spb.Int32, 1)

	time.Sleep(80 * time.Millisecond)

	pubs = mock.Client().Published()
	if len(pubs) != 3 {
		t.Fatalf("after mutate, published %d messages, want 3: %+v", len(pubs), pubs)
	}
	if pubs[2].Topic != "spBv1.0/G/NDATA/N" {
		t.Fatalf("pubs[2].Topic = %q, want NDATA", pubs[2].Topic)
	}

	ndata, err := spb.Decode(pubs[2].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if ndata.Seq != 2 {
		t.Fatalf("NDATA seq = %d, want 2", ndata.Seq)
	}
	xm := decodeMetric(t, ndata, "x")
	if xm.IntValue != 1 {
		t.Fatalf("NDATA x = %d, want 1", xm.IntValue)
	}
}

// TestRebirthOnNCmd covers scenario 2: an NCMD with Node Control/Rebirth=true
// triggers NDEATH, an MQTT session end, a fresh connect with a bumped
// bdSeq, and a re-published NBIRTH (seq reset to 0) followed by DBIRTH for
// each previously born device. The fresh connect dials a brand new
// mqttadapter.NewFunc instance, matching how a real client would reconnect,
// so the assertions below track the first and second mock clients
// separately rather than assuming one shared publish history.
func TestRebirthOnNCmd(t *testing.T) {
	mock := withMock(t)

	x := &metric.Metric{Name: "x", Value: metric.Int(spb.Int32, 0)}
	y := &metric.Metric{Name: "y", Value: metric.Bool(true)}

	n, err := node.New(node.Config{
		GroupID:   "G",
		ID:        "N",
		Transport: testTransport(),
	}, node.WithMetric(x), node.WithDevice("D", y))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := n.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	first := mock.Client()

	rebirth, err := spb.EncodeData(uint64(time.Now().UnixMilli()), []spb.Metric{{
		Name:         "Node Control/Rebirth",
		DataType:     spb.Boolean,
		BooleanValue: true,
	}}, 0, spb.CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}

	first.Deliver("spBv1.0/G/NCMD/N", rebirth)

	deadline := time.Now().Add(time.Second)

	var second *mqttmock.Client
	for time.Now().Before(deadline) {
		if c := mock.Client(); c != first {
			second = c
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if second == nil {
		t.Fatal("node did not redial for rebirth")
	}

	for time.Now().Before(deadline) {
		if len(second.Published()) >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	firstPubs := first.Published()
	if len(firstPubs) != 3 {
		t.Fatalf("first session published %d messages, want 3 (NBIRTH,DBIRTH,NDEATH): %+v", len(firstPubs), firstPubs)
	}
	if firstPubs[2].Topic != "spBv1.0/G/NDEATH/N" {
		t.Fatalf("firstPubs[2].Topic = %q, want NDEATH", firstPubs[2].Topic)
	}
	if nd, err := spb.Decode(firstPubs[2].Payload); err != nil || nd.HasSeq {
		t.Fatalf("NDEATH should carry no seq, got hasSeq=%v err=%v", nd.HasSeq, err)
	}

	secondPubs := second.Published()
	if len(secondPubs) != 2 {
		t.Fatalf("second session published %d messages, want 2 (NBIRTH,DBIRTH): %+v", len(secondPubs), secondPubs)
	}
	if secondPubs[0].Topic != "spBv1.0/G/NBIRTH/N" {
		t.Fatalf("secondPubs[0].Topic = %q, want NBIRTH", secondPubs[0].Topic)
	}
	if secondPubs[1].Topic != "spBv1.0/G/DBIRTH/N/D" {
		t.Fatalf("secondPubs[1].Topic = %q, want DBIRTH", secondPubs[1].Topic)
	}

	firstNBirth, err := spb.Decode(firstPubs[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	secondNBirth, err := spb.Decode(secondPubs[0].Payload)
	if err != nil {
		t.Fatal(err)
	}

	if secondNBirth.Seq != 0 {
		t.Fatalf("rebirth NBIRTH seq = %d, want 0", secondNBirth.Seq)
	}

	firstBdSeq := decodeMetric(t, firstNBirth, "bdSeq").LongValue
	secondBdSeq := decodeMetric(t, secondNBirth, "bdSeq").LongValue
	if secondBdSeq != firstBdSeq+1 {
		t.Fatalf("rebirth bdSeq = %d, want %d", secondBdSeq, firstBdSeq+1)
	}
}
