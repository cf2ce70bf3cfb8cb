package metric_test

import (
	"testing"
	"time"

	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/spb"
)

func TestShouldPublishFirstTimeAlwaysTrue(t *testing.T) {
	m := &metric.Metric{Name: "x"}
	current := metric.Float(spb.Double, 1)

	if !metric.ShouldPublish(m, current, time.Now()) {
		t.Fatal("want true when LastPublished is nil")
	}
}

func TestShouldPublishNonNumericOnChange(t *testing.T) {
	now := time.Now()
	m := &metric.Metric{Name: "label"}
	m.MarkPublished(now, metric.String(spb.String, "a"))

	if metric.ShouldPublish(m, metric.String(spb.String, "a"), now) {
		t.Fatal("unchanged string republished")
	}
	if !metric.ShouldPublish(m, metric.String(spb.String, "b"), now) {
		t.Fatal("changed string suppressed")
	}
}

func TestShouldPublishNumericNoDeadbandOnChange(t *testing.T) {
	now := time.Now()
	m := &metric.Metric{Name: "temp"}
	m.MarkPublished(now, metric.Float(spb.Double, 10))

	// With no Deadband configured, a numeric metric falls through to rule
	// 2's equality check just like a non-numeric one.
	if metric.ShouldPublish(m, metric.Float(spb.Double, 10), now) {
		t.Fatal("unchanged numeric metric with no deadband republished")
	}
	if !metric.ShouldPublish(m, metric.Float(spb.Double, 99), now) {
		t.Fatal("changed numeric metric with no deadband suppressed")
	}
}

func TestShouldPublishDeadbandValueCrossed(t *testing.T) {
	now := time.Now()
	m := &metric.Metric{
		Name:     "temp",
		Deadband: &metric.Deadband{Value: 0.5},
	}
	m.MarkPublished(now, metric.Float(spb.Double, 10))

	if metric.ShouldPublish(m, metric.Float(spb.Double, 10.2), now) {
		t.Fatal("change within deadband republished")
	}
	if !metric.ShouldPublish(m, metric.Float(spb.Double, 10.6), now) {
		t.Fatal("change beyond deadband suppressed")
	}
}

func TestShouldPublishDeadbandMaxTimeElapsed(t *testing.T) {
	base := time.Now()
	m := &metric.Metric{
		Name:     "temp",
		Deadband: &metric.Deadband{Value: 10, MaxTime: time.Second},
	}
	m.MarkPublished(base, metric.Float(spb.Double, 10))

	same := metric.Float(spb.Double, 10)

	if metric.ShouldPublish(m, same, base.Add(500*time.Millisecond)) {
		t.Fatal("maxTime not yet elapsed republished")
	}
	if !metric.ShouldPublish(m, same, base.Add(2*time.Second)) {
		t.Fatal("maxTime elapsed suppressed")
	}
}

func TestShouldPublishNullLastPublishedAlwaysTrue(t *testing.T) {
	now := time.Now()
	m := &metric.Metric{Name: "x"}
	m.MarkPublished(now, metric.Null(spb.String))

	if !metric.ShouldPublish(m, metric.String(spb.String, "a"), now) {
		t.Fatal("want true when LastPublished.Value was null")
	}
}
