package metric

import (
	"context"
	"time"
)

// Producer returns the current value of a metric. It is invoked on every
// scheduler tick that considers the metric; a producer that must block
// (e.g. on I/O) should select on ctx.Done() so it is interrupted by
// disconnect. There is no separate synchronous/asynchronous producer type:
// a plain function that returns immediately behaves synchronously, and one
// that calls out and blocks behaves like the source's "async producer"
// without Go needing a distinct type for it.
type Producer func(ctx context.Context) (Value, error)

// Deadband configures report-by-exception suppression for a numeric metric.
type Deadband struct {
	// Value is the minimum absolute change from the last published value
	// required to qualify a republish.
	Value float64
	// MaxTime forces a republish even with no qualifying change once this
	// much time has elapsed since the last publish.
	MaxTime time.Duration
}

// LastPublished records what was actually sent on the wire for a metric, so
// a later mutation to Value does not retroactively change what "last
// published" means (I5).
type LastPublished struct {
	Timestamp time.Time
	Value     Value
}

// Metric is a named, typed value belonging to a node or device.
type Metric struct {
	// Name is unique within its owner (node or device).
	Name string

	// Value is the metric's current scalar value. Producer, if non-nil,
	// takes precedence: it is invoked to obtain a fresh Value on every
	// evaluation instead of reading Value directly.
	Value    Value
	Producer Producer

	// ScanRate is the interval between publish-eligibility evaluations. A
	// zero ScanRate uses the owning node's configured default interval.
	ScanRate time.Duration

	// Deadband is optional; nil disables deadband/maxTime suppression
	// (rule 2 of the RBE gate still applies based on type/equality alone).
	Deadband *Deadband

	// LastPublished is nil until the metric has been sent at least once.
	LastPublished *LastPublished

	// Properties are pass-through protocol metadata, not interpreted by
	// the core.
	Properties map[string]string
}

// Eval resolves m's current value, invoking Producer if set.
func (m *Metric) Eval(ctx context.Context) (Value, error) {
	if m.Producer != nil {
		return m.Producer(ctx)
	}
	return m.Value, nil
}

// MarkPublished records that v was sent at ts, satisfying I5.
func (m *Metric) MarkPublished(ts time.Time, v Value) {
	m.LastPublished = &LastPublished{Timestamp: ts, Value: v}
}
