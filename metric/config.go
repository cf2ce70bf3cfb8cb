package metric

import (
	"fmt"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/spb"
)

// ParseDataType parses one of the spec's DataType names into its spb.DataType.
func ParseDataType(s string) (spb.DataType, error) {
	switch s {
	case "Int8":
		return spb.Int8, nil
	case "Int16":
		return spb.Int16, nil
	case "Int32":
		return spb.Int32, nil
	case "Int64":
		return spb.Int64, nil
	case "UInt8":
		return spb.UInt8, nil
	case "UInt16":
		return spb.UInt16, nil
	case "UInt32":
		return spb.UInt32, nil
	case "UInt64":
		return spb.UInt64, nil
	case "Float":
		return spb.Float, nil
	case "Double":
		return spb.Double, nil
	case "Boolean":
		return spb.Boolean, nil
	case "String":
		return spb.String, nil
	case "Text":
		return spb.Text, nil
	case "DateTime":
		return spb.DateTime, nil
	default:
		return 0, fmt.Errorf("metric: unknown data type %q", s)
	}
}

// ValueFromAny converts a YAML-decoded scalar into a Value of type t,
// carrying integers through natively rather than via a float64
// intermediate (yaml.v3 decodes unsuffixed integers as int, not float64,
// so this only downconverts when the source literal is itself a float).
func ValueFromAny(t spb.DataType, v any) (Value, error) {
	if v == nil {
		return Null(t), nil
	}

	switch t {
	case spb.Int8, spb.Int16, spb.Int32, spb.Int64:
		i, err := asInt64(v)
		if err != nil {
			return Value{}, err
		}

		return Int(t, i), nil
	case spb.UInt8, spb.UInt16, spb.UInt32, spb.UInt64, spb.DateTime:
		u, err := asUint64(v)
		if err != nil {
			return Value{}, err
		}

		return Uint(t, u), nil
	case spb.Float, spb.Double:
		f, err := asFloat64(v)
		if err != nil {
			return Value{}, err
		}

		return Float(t, f), nil
	case spb.Boolean:
		b, ok := v.(bool)
		if !ok {
			return Value{}, fmt.Errorf("metric: value %v is not a bool", v)
		}

		return Bool(b), nil
	case spb.String, spb.Text:
		s, ok := v.(string)
		if !ok {
			return Value{}, fmt.Errorf("metric: value %v is not a string", v)
		}

		return String(t, s), nil
	default:
		return Null(t), nil
	}
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("metric: cannot convert %T to integer", v)
	}
}

func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case int:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case float64:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("metric: cannot convert %T to unsigned integer", v)
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("metric: cannot convert %T to float", v)
	}
}

// FromConfig builds a *Metric from its YAML configuration.
func FromConfig(cfg config.MetricConfig) (*Metric, error) {
	t, err := ParseDataType(cfg.Type)
	if err != nil {
		return nil, err
	}

	v, err := ValueFromAny(t, cfg.Value)
	if err != nil {
		return nil, fmt.Errorf("metric %q: %w", cfg.Name, err)
	}

	m := &Metric{
		Name:     cfg.Name,
		Value:    v,
		ScanRate: cfg.ScanRate,
	}

	if cfg.Deadband != nil {
		m.Deadband = &Deadband{Value: cfg.Deadband.Value, MaxTime: cfg.Deadband.MaxTime}
	}

	return m, nil
}
