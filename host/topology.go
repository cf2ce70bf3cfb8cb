package host

import (
	"strconv"
	"strings"
	"time"

	"github.com/joyautomation/synapse-go/internal/syncutil"
	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/spb"
)

// MetricView is the host's mirrored view of one metric on a node or device:
// its last known value plus any annotations attached the last time that
// metric was (re)born.
type MetricView struct {
	Name      string
	Value     metric.Value
	Timestamp time.Time

	// Annotations describes a metric's position in a template-chain, derived
	// from splitting a "/"-separated name at birth time. A later plain-
	// scalar DDATA/NDATA update for the same name carries no annotations of
	// its own (the wire schema has no property bag), so Annotations is left
	// untouched rather than cleared (spec §4.8).
	Annotations map[string]string
}

func newMetricView(m spb.Metric, ts time.Time) MetricView {
	return MetricView{
		Name:        m.Name,
		Value:       metric.FromWire(m),
		Timestamp:   ts,
		Annotations: chainAnnotations(m.Name),
	}
}

// chainAnnotations decomposes a "/"-separated metric name into its chain
// segments, nil for a flat name. This is the only structure the host can
// recover about a template-chain metric from this wire schema, which has no
// dedicated property-set encoding.
func chainAnnotations(name string) map[string]string {
	if !strings.Contains(name, "/") {
		return nil
	}

	parts := strings.Split(name, "/")
	ann := make(map[string]string, len(parts))
	for i, p := range parts {
		ann["segment"+strconv.Itoa(i)] = p
	}

	return ann
}

func indexMetrics(metrics []spb.Metric, ts time.Time) map[string]MetricView {
	idx := make(map[string]MetricView, len(metrics))
	for _, m := range metrics {
		idx[m.Name] = newMetricView(m, ts)
	}
	return idx
}

// DeviceView mirrors one device's last-known metric set.
type DeviceView struct {
	ID      string
	Metrics map[string]MetricView
}

// NodeView mirrors one edge node's last-known metric set and its devices.
type NodeView struct {
	ID      string
	Metrics map[string]MetricView
	Devices map[string]*DeviceView
}

// GroupView mirrors every node known within one Sparkplug group.
type GroupView struct {
	ID    string
	Nodes map[string]*NodeView
}

// Topology is the host's nested mirror of group/node/device/metric state
// (C8), kept current by dispatching incoming Sparkplug messages. The
// group-level mapping is a [syncutil.Map] so a read-only consumer (Flatten)
// can take a point-in-time snapshot of the group set without blocking the
// host's single dispatch goroutine, which is the only writer; the maps
// nested inside a GroupView/NodeView/DeviceView are plain Go maps, since
// every mutation to them is already serialized through that goroutine.
type Topology struct {
	groups syncutil.Map[string, *GroupView]
}

func newTopology() *Topology {
	t := &Topology{}
	t.groups.Make()

	return t
}

func (t *Topology) group(id string) *GroupView {
	g, ok := t.groups.Load(id)
	if !ok {
		g = &GroupView{ID: id, Nodes: make(map[string]*NodeView)}
		t.groups.Store(id, g)
	}
	return g
}

// applyNBirth replaces groups[g].nodes[n] with a fresh view built from p,
// per spec §4.8's NBIRTH rule.
func (t *Topology) applyNBirth(groupID, nodeID string, p *spb.Payload) {
	ts := time.UnixMilli(int64(p.Timestamp))
	g := t.group(groupID)
	g.Nodes[nodeID] = &NodeView{
		ID:      nodeID,
		Metrics: indexMetrics(p.Metrics, ts),
		Devices: make(map[string]*DeviceView),
	}
}

// applyDBirth sets groups[g].nodes[n].devices[d] from p, and reports false
// (ProtocolGap) if node n has not been born yet, in which case the caller
// must issue a rebirth request and drop the payload.
func (t *Topology) applyDBirth(groupID, nodeID, deviceID string, p *spb.Payload) bool {
	g, ok := t.groups.Load(groupID)
	if !ok {
		return false
	}
	n, ok := g.Nodes[nodeID]
	if !ok {
		return false
	}

	ts := time.UnixMilli(int64(p.Timestamp))
	n.Devices[deviceID] = &DeviceView{ID: deviceID, Metrics: indexMetrics(p.Metrics, ts)}

	return true
}

// applyNData merges p's metrics into groups[g].nodes[n] by name, preserving
// any existing metric's Annotations (spec §4.8). It reports false
// (ProtocolGap) if n is unknown.
func (t *Topology) applyNData(groupID, nodeID string, p *spb.Payload) bool {
	g, ok := t.groups.Load(groupID)
	if !ok {
		return false
	}
	n, ok := g.Nodes[nodeID]
	if !ok {
		return false
	}

	ts := time.UnixMilli(int64(p.Timestamp))
	for _, m := range p.Metrics {
		mergeMetric(n.Metrics, m, ts)
	}

	return true
}

// applyDData merges p's metrics into groups[g].nodes[n].devices[d] by name,
// preserving existing Annotations. It reports false (ProtocolGap) if the
// device is unknown.
func (t *Topology) applyDData(groupID, nodeID, deviceID string, p *spb.Payload) bool {
	g, ok := t.groups.Load(groupID)
	if !ok {
		return false
	}
	n, ok := g.Nodes[nodeID]
	if !ok {
		return false
	}
	d, ok := n.Devices[deviceID]
	if !ok {
		return false
	}

	ts := time.UnixMilli(int64(p.Timestamp))
	for _, m := range p.Metrics {
		mergeMetric(d.Metrics, m, ts)
	}

	return true
}

func mergeMetric(idx map[string]MetricView, m spb.Metric, ts time.Time) {
	existing, ok := idx[m.Name]

	v := newMetricView(m, ts)
	if ok {
		v.Annotations = existing.Annotations
	}

	idx[m.Name] = v
}

// applyNDeath removes groups[g].nodes[n] and every device it owned.
func (t *Topology) applyNDeath(groupID, nodeID string) {
	if g, ok := t.groups.Load(groupID); ok {
		delete(g.Nodes, nodeID)
	}
}

// applyDDeath removes groups[g].nodes[n].devices[d].
func (t *Topology) applyDDeath(groupID, nodeID, deviceID string) {
	if g, ok := t.groups.Load(groupID); ok {
		if n, ok := g.Nodes[nodeID]; ok {
			delete(n.Devices, deviceID)
		}
	}
}

// knowsNode reports whether n has been born within group g.
func (t *Topology) knowsNode(groupID, nodeID string) bool {
	g, ok := t.groups.Load(groupID)
	if !ok {
		return false
	}
	_, ok = g.Nodes[nodeID]
	return ok
}

// MetricExport is the flattened, read-only projection of one MetricView.
type MetricExport struct {
	Name        string
	Value       metric.Value
	Timestamp   time.Time
	Annotations map[string]string
}

// DeviceExport is the flattened projection of one DeviceView.
type DeviceExport struct {
	ID      string
	Metrics []MetricExport
}

// NodeExport is the flattened projection of one NodeView.
type NodeExport struct {
	ID      string
	Metrics []MetricExport
	Devices []DeviceExport
}

// GroupExport is the flattened projection of one GroupView.
type GroupExport struct {
	ID    string
	Nodes []NodeExport
}

// Flatten converts the nested group/node/device/metric mapping into arrays
// suitable for a downstream consumer such as a GraphQL resolver (spec
// §4.8's flatten-for-export projection). Iteration order is not stable
// across calls; callers that need a stable order should sort by ID/Name.
func (t *Topology) Flatten() []GroupExport {
	out := make([]GroupExport, 0, t.groups.Len())

	for _, g := range t.groups.Iter() {
		ge := GroupExport{ID: g.ID, Nodes: make([]NodeExport, 0, len(g.Nodes))}

		for _, n := range g.Nodes {
			ne := NodeExport{ID: n.ID, Metrics: flattenMetrics(n.Metrics), Devices: make([]DeviceExport, 0, len(n.Devices))}

			for _, d := range n.Devices {
				ne.Devices = append(ne.Devices, DeviceExport{ID: d.ID, Metrics: flattenMetrics(d.Metrics)})
			}

			ge.Nodes = append(ge.Nodes, ne)
		}

		out = append(out, ge)
	}

	return out
}

func flattenMetrics(idx map[string]MetricView) []MetricExport {
	out := make([]MetricExport, 0, len(idx))
	for _, v := range idx {
		out = append(out, MetricExport{Name: v.Name, Value: v.Value, Timestamp: v.Timestamp, Annotations: v.Annotations})
	}
	return out
}
