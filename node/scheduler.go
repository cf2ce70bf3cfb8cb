package node

import (
	"context"
	"time"

	"github.com/joyautomation/synapse-go/log"
	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/mqttadapter"
	"github.com/joyautomation/synapse-go/spb"
)

// effectiveRate returns m's own scan rate, falling back to the node's
// configured default, and finally to a hardcoded 10s if neither is set.
func (n *Node) effectiveRate(m *metric.Metric) time.Duration {
	if m.ScanRate > 0 {
		return m.ScanRate
	}
	if n.defaultScanRate > 0 {
		return n.defaultScanRate
	}
	return 10 * time.Second
}

// startSchedulerLocked starts one ticker per distinct effective scan rate
// among the node's own metrics and every owned device's metrics (C6).
// Callers must hold n.mu.
func (n *Node) startSchedulerLocked() {
	rates := make(map[time.Duration]bool)

	for _, name := range n.order {
		rates[n.effectiveRate(n.metrics[name])] = true
	}

	for _, id := range n.deviceOrder {
		for _, name := range n.deviceMetricOrder[id] {
			rates[n.effectiveRate(n.devices[id].Metrics[name])] = true
		}
	}

	ctx := n.schedCtx

	for rate := range rates {
		if _, ok := n.tickers[rate]; ok {
			continue
		}

		ticker := time.NewTicker(rate)
		n.tickers[rate] = ticker

		go n.tickLoop(ctx, rate, ticker)
	}
}

// stopTickersLocked stops every running scan ticker. Callers must hold n.mu.
func (n *Node) stopTickersLocked() {
	for rate, t := range n.tickers {
		t.Stop()
		delete(n.tickers, rate)
	}
}

func (n *Node) tickLoop(ctx context.Context, rate time.Duration, ticker *time.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.publishTick(ctx, rate)
		}
	}
}

// deviceBatch is one device's qualifying RBE batch for a single tick.
type deviceBatch struct {
	id      string
	topic   string
	wire    []spb.Metric
	changed []*metric.Metric
	vals    []metric.Value
	seq     uint64
}

// publishTick evaluates every node and device metric whose effective scan
// rate is rate, and publishes NDATA/DDATA for whichever qualify under the
// RBE gate. A tick against a node that is not currently connected.born (e.g.
// raced against a concurrent Disconnect) is silently skipped.
func (n *Node) publishTick(ctx context.Context, rate time.Duration) {
	n.mu.Lock()
	if n.state != ConnectedBorn {
		n.mu.Unlock()
		return
	}

	now := time.Now()

	var nodeWire []spb.Metric
	var nodeChanged []*metric.Metric
	var nodeVals []metric.Value

	for _, name := range n.order {
		m := n.metrics[name]
		if n.effectiveRate(m) != rate {
			continue
		}

		v, err := m.Eval(ctx)
		if err != nil {
			log.Warn("node: metric eval failed", "metric", name, "err", err)
			continue
		}

		if !metric.ShouldPublish(m, v, now) {
			continue
		}

		nodeWire = append(nodeWire, metric.ToWire(name, v, now))
		nodeChanged = append(nodeChanged, m)
		nodeVals = append(nodeVals, v)
	}

	var nodeSeq uint64
	if len(nodeWire) > 0 {
		nodeSeq = uint64(n.seq.TakeSeq())
	}

	var batches []deviceBatch

	for _, id := range n.deviceOrder {
		d := n.devices[id]
		if !d.IsBorn() {
			continue
		}

		var wire []spb.Metric
		var changed []*metric.Metric
		var vals []metric.Value

		for _, name := range n.deviceMetricOrder[id] {
			m := d.Metrics[name]
			if n.effectiveRate(m) != rate {
				continue
			}

			v, err := m.Eval(ctx)
			if err != nil {
				log.Warn("node: device metric eval failed", "device", id, "metric", name, "err", err)
				continue
			}

			if !metric.ShouldPublish(m, v, now) {
				continue
			}

			wire = append(wire, metric.ToWire(name, v, now))
			changed = append(changed, m)
			vals = append(vals, v)
		}

		if len(wire) == 0 {
			continue
		}

		batches = append(batches, deviceBatch{
			id:      id,
			topic:   n.topic(spb.DDATA, id),
			wire:    wire,
			changed: changed,
			vals:    vals,
			seq:     uint64(n.seq.TakeSeq()),
		})
	}

	compress := n.compress
	client := n.client
	nodeTopic := n.topic(spb.NDATA, "")
	n.mu.Unlock()

	if len(nodeWire) > 0 {
		n.publishNodeData(ctx, client, nodeTopic, nodeWire, nodeChanged, nodeVals, nodeSeq, compress, now)
	}

	for _, b := range batches {
		n.publishDeviceData(ctx, client, b, compress, now)
	}
}

func (n *Node) publishNodeData(ctx context.Context, client *mqttadapter.Client, topic string, wire []spb.Metric, changed []*metric.Metric, vals []metric.Value, seq uint64, compress spb.CompressOptions, now time.Time) {
	payload, err := spb.EncodeData(uint64(now.UnixMilli()), wire, seq, compress)
	if err != nil {
		log.Warn("node: NDATA encode failed", "err", err)
		return
	}

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		log.Warn("node: NDATA publish failed", "err", err)
		return
	}

	n.mu.Lock()
	for i, m := range changed {
		m.MarkPublished(now, vals[i])
	}
	n.mu.Unlock()

	n.emit(Event{Kind: EventNData, Topic: topic})
	n.emit(Event{Kind: PublishEventKind(spb.NDATA), Topic: topic})
}

func (n *Node) publishDeviceData(ctx context.Context, client *mqttadapter.Client, b deviceBatch, compress spb.CompressOptions, now time.Time) {
	payload, err := spb.EncodeData(uint64(now.UnixMilli()), b.wire, b.seq, compress)
	if err != nil {
		log.Warn("node: DDATA encode failed", "device", b.id, "err", err)
		return
	}

	if err := client.Publish(ctx, b.topic, 0, false, payload); err != nil {
		log.Warn("node: DDATA publish failed", "device", b.id, "err", err)
		return
	}

	n.mu.Lock()
	for i, m := range b.changed {
		m.MarkPublished(now, b.vals[i])
	}
	n.mu.Unlock()

	n.emit(Event{Kind: EventDData, Topic: b.topic, Device: b.id})
	n.emit(Event{Kind: PublishEventKind(spb.DDATA), Topic: b.topic, Device: b.id})
}
