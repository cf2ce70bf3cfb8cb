package spb

// DataType enumerates a metric's wire type. The numeric values match the
// public Sparkplug B / Eclipse Tahu sparkplug_b.proto DataType enum exactly,
// since payloads produced here must interoperate with real Sparkplug hosts
// and edge nodes.
type DataType uint32

const (
	Unknown DataType = 0
	Int8    DataType = 1
	Int16   DataType = 2
	Int32   DataType = 3
	Int64   DataType = 4
	UInt8   DataType = 5
	UInt16  DataType = 6
	UInt32  DataType = 7
	UInt64  DataType = 8
	Float   DataType = 9
	Double  DataType = 10
	Boolean DataType = 11
	String  DataType = 12
	// DateTime carries a UInt64 milliseconds-since-epoch value on the wire.
	DateTime DataType = 13
	Text     DataType = 14
)

// IsNumeric reports whether t is one of the fixed-width numeric types the
// report-by-exception gate treats as deadband-eligible: Int8..64, UInt8..64,
// Float, Double.
func (t DataType) IsNumeric() bool {
	switch t {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float, Double:
		return true
	default:
		return false
	}
}

func (t DataType) String() string {
	switch t {
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	case DateTime:
		return "DateTime"
	case Text:
		return "Text"
	default:
		return "Unknown"
	}
}
