// Package metric implements the Metric data model: a named, typed value
// with an optional scan rate, report-by-exception deadband, and last
// published bookkeeping.
package metric

import (
	"math"

	"github.com/joyautomation/synapse-go/spb"
)

// kind selects which field of Value holds the actual data. Value is a
// closed tagged union rather than an any/interface{} so that 64-bit
// integers are carried natively end to end: decoding through an interface
// boxing a float64 would silently lose precision above 2^53.
type kind uint8

const (
	kindNull kind = iota
	kindInt
	kindUint
	kindFloat
	kindBool
	kindString
	kindBytes
)

// Value is a Sparkplug metric value tagged with its wire DataType.
type Value struct {
	Type spb.DataType
	kind kind

	i int64
	u uint64
	f float64
	s string
	b []byte
}

// Null returns a null value of type t, matching a metric whose is_null bit
// is set on the wire.
func Null(t spb.DataType) Value {
	return Value{Type: t, kind: kindNull}
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == kindNull
}

// Int returns a signed integer value. t must be one of Int8/Int16/Int32/Int64.
func Int(t spb.DataType, v int64) Value {
	return Value{Type: t, kind: kindInt, i: v}
}

// Uint returns an unsigned integer value. t must be one of
// UInt8/UInt16/UInt32/UInt64/DateTime.
func Uint(t spb.DataType, v uint64) Value {
	return Value{Type: t, kind: kindUint, u: v}
}

// Float returns a floating point value. t must be Float or Double.
func Float(t spb.DataType, v float64) Value {
	return Value{Type: t, kind: kindFloat, f: v}
}

// Bool returns a Boolean value.
func Bool(v bool) Value {
	return Value{Type: spb.Boolean, kind: kindBool, f: boolFloat(v)}
}

func boolFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// String returns a String or Text value.
func String(t spb.DataType, v string) Value {
	return Value{Type: t, kind: kindString, s: v}
}

// Bytes returns a raw byte value (used for types with no dedicated scalar
// field, e.g. DataSet/Template/Bytes; this core treats them opaquely).
func Bytes(t spb.DataType, v []byte) Value {
	return Value{Type: t, kind: kindBytes, b: v}
}

// Int64 returns v's integer value, and false if v is not an integer kind.
func (v Value) Int64() (int64, bool) {
	if v.kind != kindInt {
		return 0, false
	}
	return v.i, true
}

// Uint64 returns v's unsigned integer value, and false if v is not an
// unsigned integer kind.
func (v Value) Uint64() (uint64, bool) {
	if v.kind != kindUint {
		return 0, false
	}
	return v.u, true
}

// Float64 returns v's floating point value, and false if v is not a float
// kind.
func (v Value) Float64() (float64, bool) {
	if v.kind != kindFloat {
		return 0, false
	}
	return v.f, true
}

// Bool returns v's boolean value, and false if v is not a Boolean.
func (v Value) Bool() (bool, bool) {
	if v.kind != kindBool {
		return false, false
	}
	return v.f != 0, true
}

// StringValue returns v's string value, and false if v is not a String/Text.
func (v Value) StringValue() (string, bool) {
	if v.kind != kindString {
		return "", false
	}
	return v.s, true
}

// Equal reports whether v and other carry the same type and value. Equal
// treats two null values of the same type as equal, and never treats values
// of differing kind as equal even if numerically convertible.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type || v.kind != other.kind {
		return false
	}

	switch v.kind {
	case kindNull:
		return true
	case kindInt:
		return v.i == other.i
	case kindUint:
		return v.u == other.u
	case kindFloat:
		return v.f == other.f
	case kindBool:
		return v.f == other.f
	case kindString:
		return v.s == other.s
	case kindBytes:
		return string(v.b) == string(other.b)
	default:
		return false
	}
}

// numeric returns v as a float64 for deadband comparison, valid only when
// v.Type.IsNumeric(). This conversion is used solely for the RBE gate's
// deadband distance check, never for wire encoding, so it does not regress
// the Value type's own 64-bit-integer fidelity guarantee.
func (v Value) numeric() (float64, bool) {
	switch v.kind {
	case kindInt:
		return float64(v.i), true
	case kindUint:
		return float64(v.u), true
	case kindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// absDiff returns |v - other| for two numeric values, and false if either is
// non-numeric.
func absDiff(v, other Value) (float64, bool) {
	a, ok := v.numeric()
	if !ok {
		return 0, false
	}
	b, ok := other.numeric()
	if !ok {
		return 0, false
	}
	return math.Abs(a - b), true
}
