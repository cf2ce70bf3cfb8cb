package metric

import "time"

// ShouldPublish implements the report-by-exception gate (spec §4.6.1): a
// metric qualifies to publish against current iff ANY of:
//
//  1. there is no LastPublished yet, or its value was null;
//  2. the type is not numeric AND current differs from LastPublished.Value;
//  3. the type is numeric AND Deadband is set AND |current - last| > Deadband.Value;
//  4. the type is numeric AND Deadband.MaxTime is set AND now - LastPublished.Timestamp > Deadband.MaxTime.
//
// Rule 2 short-circuits for non-numeric or deadband-less metrics; rules 3
// and 4 only apply once a Deadband is configured.
func ShouldPublish(m *Metric, current Value, now time.Time) bool {
	if m.LastPublished == nil || m.LastPublished.Value.IsNull() {
		return true
	}

	last := m.LastPublished.Value

	if !current.Type.IsNumeric() {
		return !current.Equal(last)
	}

	// Rules 3/4 only apply once Deadband is configured; a numeric metric
	// with no Deadband at all still falls through to rule 2's equality
	// check, same as a non-numeric metric.
	if m.Deadband == nil {
		return !current.Equal(last)
	}

	if diff, ok := absDiff(current, last); ok && diff > m.Deadband.Value {
		return true
	}

	if m.Deadband.MaxTime != 0 && now.Sub(m.LastPublished.Timestamp) > m.Deadband.MaxTime {
		return true
	}

	return false
}
