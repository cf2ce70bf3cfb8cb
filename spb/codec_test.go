package spb_test

import (
	"testing"

	"github.com/joyautomation/synapse-go/spb"
)

func TestEncodeNodeBirthCarriesBdSeqAndRebirthFalse(t *testing.T) {
	metrics := []spb.Metric{{Name: "Temperature", DataType: spb.Double, DoubleValue: 1}}

	b, err := spb.EncodeNodeBirth(1000, metrics, 5, spb.CompressOptions{})
	if err != nil {
		t.Fatal(err)
	}

	p, err := spb.Decode(b)
	if err != nil {
		t.Fatal(err)
	}

	if !p.HasSeq || p.Seq != 0 {
		t.Fatalf("NBIRTH seq = %v (has=%v), want 0", p.Seq, p.HasSeq)
	}

	var sawBdSeq, sawRebirth bool
	for _, m := range p.Metrics {
		switch m.Name {
		case "bdSeq":
			sawBdSeq = true
			if m.LongValue != 5 {
				t.Fatalf("bdSeq value = %d, want 5", m.LongValue)
			}
		case "Node Control/Rebirth":
			sawRebirth = true
			if m.BooleanValue != false {
				t.Fatalf("Node Control/Rebirth = %v, want false", m.BooleanValue)
			}
		}
	}

	if !sawBdSeq || !sawRebirth {
		t.Fatalf("NBIRTH missing reserved metrics: bdSeq=%v rebirth=%v", sawBdSeq, sawRebirth)
	}
}

func TestEncodeCompressedPayloadCarriesAlgorithmMetric(t *testing.T) {
	metrics := []spb.Metric{{Name: "Temperature", DataType: spb.Double, DoubleValue: 1}}

	b, err := spb.EncodeData(1000, metrics, 3, spb.CompressOptions{Enabled: true, Algorithm: spb.AlgorithmGZIP})
	if err != nil {
		t.Fatal(err)
	}

	outer, err := spb.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}

	if len(outer.Metrics) != 1 || outer.Metrics[0].Name != "algorithm" || outer.Metrics[0].StringValue != spb.AlgorithmGZIP {
		t.Fatalf("compressed outer payload metrics = %+v", outer.Metrics)
	}
	if outer.Body == nil {
		t.Fatal("compressed outer payload has no body")
	}

	inner, err := spb.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(inner.Metrics) != 1 || inner.Metrics[0].Name != "Temperature" {
		t.Fatalf("decoded inner payload = %+v", inner.Metrics)
	}
}

func TestEncodeWillHasNoSeq(t *testing.T) {
	b := spb.EncodeWill(1000, 9)

	p, err := spb.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}

	if p.HasSeq {
		t.Fatalf("NDEATH will payload carries seq, want none (I3)")
	}
	if len(p.Metrics) != 1 || p.Metrics[0].Name != "bdSeq" || p.Metrics[0].LongValue != 9 {
		t.Fatalf("will metrics = %+v", p.Metrics)
	}
}
