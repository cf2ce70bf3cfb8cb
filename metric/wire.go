package metric

import (
	"time"

	"github.com/joyautomation/synapse-go/spb"
)

// ToWire converts a resolved (name, value) pair into the spb.Metric wire
// shape, stamped with ts.
func ToWire(name string, v Value, ts time.Time) spb.Metric {
	m := spb.Metric{
		Name:      name,
		DataType:  v.Type,
		Timestamp: uint64(ts.UnixMilli()),
	}

	if v.IsNull() {
		m.IsNull = true
		return m
	}

	switch v.Type {
	case spb.Int8, spb.Int16, spb.Int32:
		i, _ := v.Int64()
		m.IntValue = uint32(int32(i))
	case spb.UInt8, spb.UInt16, spb.UInt32:
		u, _ := v.Uint64()
		m.IntValue = uint32(u)
	case spb.Int64:
		i, _ := v.Int64()
		m.LongValue = uint64(i)
	case spb.UInt64, spb.DateTime:
		u, _ := v.Uint64()
		m.LongValue = u
	case spb.Float:
		f, _ := v.Float64()
		m.FloatValue = float32(f)
	case spb.Double:
		f, _ := v.Float64()
		m.DoubleValue = f
	case spb.Boolean:
		b, _ := v.Bool()
		m.BooleanValue = b
	case spb.String, spb.Text:
		s, _ := v.StringValue()
		m.StringValue = s
	}

	return m
}

// FromWire converts a decoded spb.Metric back into a Value, preserving
// 64-bit integer precision natively rather than downcasting through
// float64.
func FromWire(m spb.Metric) Value {
	if m.IsNull {
		return Null(m.DataType)
	}

	switch m.DataType {
	case spb.Int8:
		return Int(m.DataType, int64(int8(m.IntValue)))
	case spb.Int16:
		return Int(m.DataType, int64(int16(m.IntValue)))
	case spb.Int32:
		return Int(m.DataType, int64(int32(m.IntValue)))
	case spb.Int64:
		return Int(m.DataType, int64(m.LongValue))
	case spb.UInt8, spb.UInt16, spb.UInt32:
		return Uint(m.DataType, uint64(m.IntValue))
	case spb.UInt64, spb.DateTime:
		return Uint(m.DataType, m.LongValue)
	case spb.Float:
		return Float(m.DataType, float64(m.FloatValue))
	case spb.Double:
		return Float(m.DataType, m.DoubleValue)
	case spb.Boolean:
		return Bool(m.BooleanValue)
	case spb.String, spb.Text:
		return String(m.DataType, m.StringValue)
	default:
		return Bytes(m.DataType, m.BytesValue)
	}
}
