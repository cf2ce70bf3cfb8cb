package metric_test

import (
	"testing"
	"time"

	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/spb"
)

func TestInt64PrecisionPreserved(t *testing.T) {
	// 2^62 + 17 exceeds float64's 2^53 safe-integer range; a correct
	// implementation must not downcast through float64 on the way in.
	const want int64 = 1<<62 + 17

	v := metric.Int(spb.Int64, want)

	got, ok := v.Int64()
	if !ok || got != want {
		t.Fatalf("Int64() = %d, %v, want %d, true", got, ok, want)
	}
}

func TestWireRoundTripPreservesUint64Precision(t *testing.T) {
	const want uint64 = 1<<63 + 9999

	v := metric.Uint(spb.UInt64, want)
	wm := metric.ToWire("x", v, time.Unix(0, 0))
	back := metric.FromWire(wm)

	got, ok := back.Uint64()
	if !ok || got != want {
		t.Fatalf("round trip Uint64() = %d, %v, want %d, true", got, ok, want)
	}
}

func TestValueEqual(t *testing.T) {
	a := metric.Float(spb.Double, 1.5)
	b := metric.Float(spb.Double, 1.5)
	c := metric.Float(spb.Double, 1.6)

	if !a.Equal(b) {
		t.Fatal("equal floats reported unequal")
	}
	if a.Equal(c) {
		t.Fatal("unequal floats reported equal")
	}
}

func TestNullValue(t *testing.T) {
	v := metric.Null(spb.String)
	if !v.IsNull() {
		t.Fatal("Null() value is not IsNull()")
	}
}
