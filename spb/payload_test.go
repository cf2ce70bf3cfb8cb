package spb_test

import (
	"testing"

	"github.com/joyautomation/synapse-go/spb"
)

func TestPayloadRoundTrip(t *testing.T) {
	p := &spb.Payload{
		Timestamp: 1700000000000,
		Seq:       7,
		HasSeq:    true,
		Metrics: []spb.Metric{
			spb.BdSeqMetric(3),
			{Name: "Temperature", DataType: spb.Double, DoubleValue: 21.5, Timestamp: 1700000000000},
			{Name: "Running", DataType: spb.Boolean, BooleanValue: true},
			{Name: "Label", DataType: spb.String, StringValue: "ok"},
			{Name: "Counter", DataType: spb.Int64, LongValue: 1<<62 + 17},
			{Name: "Missing", DataType: spb.String, IsNull: true},
		},
	}

	b := spb.Marshal(p)

	got, err := spb.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}

	if got.Timestamp != p.Timestamp || got.Seq != p.Seq || !got.HasSeq {
		t.Fatalf("round trip header mismatch: %+v", got)
	}

	if len(got.Metrics) != len(p.Metrics) {
		t.Fatalf("round trip metric count = %d, want %d", len(got.Metrics), len(p.Metrics))
	}

	for i, m := range p.Metrics {
		g := got.Metrics[i]
		if g.Name != m.Name || g.DataType != m.DataType {
			t.Fatalf("metric %d = %+v, want %+v", i, g, m)
		}

		switch m.DataType {
		case spb.Double:
			if g.DoubleValue != m.DoubleValue {
				t.Fatalf("metric %d DoubleValue = %v, want %v", i, g.DoubleValue, m.DoubleValue)
			}
		case spb.Boolean:
			if g.BooleanValue != m.BooleanValue {
				t.Fatalf("metric %d BooleanValue = %v, want %v", i, g.BooleanValue, m.BooleanValue)
			}
		case spb.String:
			if !m.IsNull && g.StringValue != m.StringValue {
				t.Fatalf("metric %d StringValue = %v, want %v", i, g.StringValue, m.StringValue)
			}
			if g.IsNull != m.IsNull {
				t.Fatalf("metric %d IsNull = %v, want %v", i, g.IsNull, m.IsNull)
			}
		case spb.Int64:
			if g.LongValue != m.LongValue {
				t.Fatalf("metric %d LongValue = %d, want %d (precision loss above 2^53 is not acceptable)", i, g.LongValue, m.LongValue)
			}
		case spb.UInt64:
			if g.LongValue != m.LongValue {
				t.Fatalf("metric %d LongValue = %d, want %d", i, g.LongValue, m.LongValue)
			}
		}
	}
}

func TestPayloadUnmarshalInvalid(t *testing.T) {
	if _, err := spb.Unmarshal([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}); err == nil {
		t.Fatal("Unmarshal of garbage succeeded, want error")
	}
}
