// Package spb implements the Sparkplug B topic grammar and the wire-level
// encoding of the public Eclipse Tahu sparkplug_b.proto Payload schema. The
// field numbers below mirror that published schema exactly: this is a wire
// format this program must interoperate with, not something invented here.
package spb

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Metric field numbers, from sparkplug_b.proto's Payload.Metric message.
const (
	fieldMetricName         = 1
	fieldMetricAlias        = 2
	fieldMetricTimestamp    = 3
	fieldMetricDataType     = 4
	fieldMetricIsHistorical = 5
	fieldMetricIsTransient  = 6
	fieldMetricIsNull       = 7
	fieldMetricIntValue     = 10
	fieldMetricLongValue    = 11
	fieldMetricFloatValue   = 12
	fieldMetricDoubleValue  = 13
	fieldMetricBooleanValue = 14
	fieldMetricStringValue  = 15
	fieldMetricBytesValue   = 16
)

// Payload field numbers, from sparkplug_b.proto's top-level Payload message.
const (
	fieldPayloadTimestamp = 1
	fieldPayloadMetrics   = 2
	fieldPayloadSeq       = 3
	fieldPayloadUUID      = 4
	fieldPayloadBody      = 5
)

// Metric is the wire representation of one Sparkplug metric. Exactly one of
// the *Value fields is meaningful, selected by DataType, unless IsNull is
// set, in which case none are.
type Metric struct {
	Name      string
	Alias     uint64
	HasAlias  bool
	Timestamp uint64
	DataType  DataType
	IsNull    bool

	IntValue     uint32
	LongValue    uint64
	FloatValue   float32
	DoubleValue  float64
	BooleanValue bool
	StringValue  string
	BytesValue   []byte
}

// Payload is the wire representation of a Sparkplug Payload message.
type Payload struct {
	Timestamp uint64
	Metrics   []Metric
	Seq       uint64
	HasSeq    bool
	UUID      string
	Body      []byte
}

// Marshal encodes p using protobuf wire format, matching the field layout
// of sparkplug_b.proto's Payload message.
func Marshal(p *Payload) []byte {
	var b []byte

	b = protowire.AppendTag(b, fieldPayloadTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, p.Timestamp)

	for i := range p.Metrics {
		mb := marshalMetric(&p.Metrics[i])
		b = protowire.AppendTag(b, fieldPayloadMetrics, protowire.BytesType)
		b = protowire.AppendBytes(b, mb)
	}

	if p.HasSeq {
		b = protowire.AppendTag(b, fieldPayloadSeq, protowire.VarintType)
		b = protowire.AppendVarint(b, p.Seq)
	}

	if p.UUID != "" {
		b = protowire.AppendTag(b, fieldPayloadUUID, protowire.BytesType)
		b = protowire.AppendString(b, p.UUID)
	}

	if p.Body != nil {
		b = protowire.AppendTag(b, fieldPayloadBody, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Body)
	}

	return b
}

func marshalMetric(m *Metric) []byte {
	var b []byte

	if m.Name != "" {
		b = protowire.AppendTag(b, fieldMetricName, protowire.BytesType)
		b = protowire.AppendString(b, m.Name)
	}

	if m.HasAlias {
		b = protowire.AppendTag(b, fieldMetricAlias, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Alias)
	}

	b = protowire.AppendTag(b, fieldMetricTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Timestamp)

	b = protowire.AppendTag(b, fieldMetricDataType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.DataType))

	if m.IsNull {
		b = protowire.AppendTag(b, fieldMetricIsNull, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)

		return b
	}

	switch m.DataType {
	case Int8, Int16, Int32, UInt8, UInt16, UInt32:
		b = protowire.AppendTag(b, fieldMetricIntValue, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.IntValue))
	case Int64, UInt64, DateTime:
		b = protowire.AppendTag(b, fieldMetricLongValue, protowire.VarintType)
		b = protowire.AppendVarint(b, m.LongValue)
	case Float:
		b = protowire.AppendTag(b, fieldMetricFloatValue, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(m.FloatValue))
	case Double:
		b = protowire.AppendTag(b, fieldMetricDoubleValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(m.DoubleValue))
	case Boolean:
		b = protowire.AppendTag(b, fieldMetricBooleanValue, protowire.VarintType)
		v := uint64(0)
		if m.BooleanValue {
			v = 1
		}
		b = protowire.AppendVarint(b, v)
	case String, Text:
		b = protowire.AppendTag(b, fieldMetricStringValue, protowire.BytesType)
		b = protowire.AppendString(b, m.StringValue)
	default:
		if m.BytesValue != nil {
			b = protowire.AppendTag(b, fieldMetricBytesValue, protowire.BytesType)
			b = protowire.AppendBytes(b, m.BytesValue)
		}
	}

	return b
}

// Unmarshal decodes b into a Payload.
func Unmarshal(b []byte) (*Payload, error) {
	p := &Payload{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, ErrInvalidPayload
		}
		b = b[n:]

		switch num {
		case fieldPayloadTimestamp:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, ErrInvalidPayload
			}
			p.Timestamp = v
			b = b[n:]
		case fieldPayloadMetrics:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, ErrInvalidPayload
			}
			m, err := unmarshalMetric(v)
			if err != nil {
				return nil, err
			}
			p.Metrics = append(p.Metrics, m)
			b = b[n:]
		case fieldPayloadSeq:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, ErrInvalidPayload
			}
			p.Seq = v
			p.HasSeq = true
			b = b[n:]
		case fieldPayloadUUID:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, ErrInvalidPayload
			}
			p.UUID = string(v)
			b = b[n:]
		case fieldPayloadBody:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, ErrInvalidPayload
			}
			p.Body = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, ErrInvalidPayload
			}
			b = b[n:]
		}
	}

	return p, nil
}

func unmarshalMetric(b []byte) (Metric, error) {
	var m Metric

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Metric{}, ErrInvalidPayload
		}
		b = b[n:]

		switch num {
		case fieldMetricName:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.Name = string(v)
			b = b[n:]
		case fieldMetricAlias:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.Alias = v
			m.HasAlias = true
			b = b[n:]
		case fieldMetricTimestamp:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.Timestamp = v
			b = b[n:]
		case fieldMetricDataType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.DataType = DataType(v)
			b = b[n:]
		case fieldMetricIsNull:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.IsNull = v != 0
			b = b[n:]
		case fieldMetricIntValue:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.IntValue = uint32(v)
			b = b[n:]
		case fieldMetricLongValue:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.LongValue = v
			b = b[n:]
		case fieldMetricFloatValue:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.FloatValue = math.Float32frombits(v)
			b = b[n:]
		case fieldMetricDoubleValue:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.DoubleValue = math.Float64frombits(v)
			b = b[n:]
		case fieldMetricBooleanValue:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.BooleanValue = v != 0
			b = b[n:]
		case fieldMetricStringValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.StringValue = string(v)
			b = b[n:]
		case fieldMetricBytesValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			m.BytesValue = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Metric{}, ErrInvalidPayload
			}
			b = b[n:]
		}
	}

	return m, nil
}
