package node

import (
	"context"
	"time"

	"github.com/joyautomation/synapse-go/log"
	"github.com/joyautomation/synapse-go/metric"
	"github.com/joyautomation/synapse-go/spb"
)

// Birth publishes NBIRTH for every node-owned metric and transitions
// connected.dead -> connected.born (S1 -> S2). It is a no-op
// (InvalidTransition, logged, nil error) unless n is currently connected.dead, and
// starts the scan scheduler on success.
func (n *Node) Birth(ctx context.Context) error {
	n.mu.Lock()
	if n.state != ConnectedDead {
		n.mu.Unlock()
		log.Info("node: Birth invalid transition", "state", n.state.String())

		return nil
	}

	now := time.Now()

	wire := make([]spb.Metric, 0, len(n.order))
	vals := make([]metric.Value, 0, len(n.order))

	for _, name := range n.order {
		m := n.metrics[name]

		v, err := m.Eval(ctx)
		if err != nil {
			n.mu.Unlock()
			return err
		}

		wire = append(wire, metric.ToWire(name, v, now))
		vals = append(vals, v)
	}

	n.seq.TakeSeq()
	bdSeq := uint64(n.seq.BdSeq)

	payload, err := spb.EncodeNodeBirth(uint64(now.UnixMilli()), wire, bdSeq, n.compress)
	if err != nil {
		n.mu.Unlock()
		return err
	}

	topic := n.topic(spb.NBIRTH, "")
	client := n.client
	n.mu.Unlock()

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		return err
	}

	n.mu.Lock()
	for i, name := range n.order {
		n.metrics[name].MarkPublished(now, vals[i])
	}
	n.state = ConnectedBorn
	n.startSchedulerLocked()
	n.mu.Unlock()

	n.emit(Event{Kind: EventBirth, Topic: topic})
	n.emit(Event{Kind: EventNBirth, Topic: topic})
	n.emit(Event{Kind: PublishEventKind(spb.NBIRTH), Topic: topic})

	return nil
}

// Death publishes an explicit NDEATH and transitions connected.born ->
// connected.dead (S2 -> S1). It is a no-op (InvalidTransition, logged, nil
// error) unless n is currently connected.born. NDEATH carries no seq (I3), so Seq
// is left untouched.
func (n *Node) Death(ctx context.Context) error {
	n.mu.Lock()
	if n.state != ConnectedBorn {
		n.mu.Unlock()
		log.Info("node: Death invalid transition", "state", n.state.String())

		return nil
	}

	now := time.Now()
	bdSeq := uint64(n.seq.BdSeq)
	payload := spb.EncodeNodeDeath(uint64(now.UnixMilli()), bdSeq)
	topic := n.topic(spb.NDEATH, "")
	client := n.client

	n.stopTickersLocked()

	for _, id := range n.deviceOrder {
		n.devices[id].Death()
	}

	n.state = ConnectedDead
	n.mu.Unlock()

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		return err
	}

	n.emit(Event{Kind: EventDeath, Topic: topic})

	return nil
}

// BirthDevice publishes DBIRTH for the device named id and transitions it
// dead -> born, reporting whether the transition took place. It requires n
// to be connected.born and the device to be dead; otherwise it is a no-op
// returning false and a nil error (InvalidTransition, logged).
func (n *Node) BirthDevice(ctx context.Context, id string) (bool, error) {
	n.mu.Lock()
	if n.state != ConnectedBorn {
		n.mu.Unlock()
		log.Info("node: BirthDevice invalid transition", "state", n.state.String())

		return false, nil
	}

	d, ok := n.devices[id]
	if !ok {
		n.mu.Unlock()
		return false, nil
	}

	if !d.Birth() {
		n.mu.Unlock()
		log.Info("node: BirthDevice invalid transition", "device", id)

		return false, nil
	}

	now := time.Now()
	names := n.deviceMetricOrder[id]

	wire := make([]spb.Metric, 0, len(names))
	vals := make([]metric.Value, 0, len(names))

	for _, name := range names {
		m := d.Metrics[name]

		v, err := m.Eval(ctx)
		if err != nil {
			n.mu.Unlock()
			return false, err
		}

		wire = append(wire, metric.ToWire(name, v, now))
		vals = append(vals, v)
	}

	seq := n.seq.TakeSeq()

	payload, err := spb.EncodeDeviceBirth(uint64(now.UnixMilli()), wire, uint64(seq), n.compress)
	if err != nil {
		n.mu.Unlock()
		return false, err
	}

	topic := n.topic(spb.DBIRTH, id)
	client := n.client
	n.mu.Unlock()

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		return false, err
	}

	n.mu.Lock()
	for i, name := range names {
		d.Metrics[name].MarkPublished(now, vals[i])
	}
	n.mu.Unlock()

	n.emit(Event{Kind: EventDBirth, Topic: topic, Device: id})
	n.emit(Event{Kind: PublishEventKind(spb.DBIRTH), Topic: topic, Device: id})

	return true, nil
}

// DeathDevice publishes DDEATH for the device named id and transitions it
// born -> dead, reporting whether the transition took place.
func (n *Node) DeathDevice(ctx context.Context, id string) (bool, error) {
	n.mu.Lock()

	d, ok := n.devices[id]
	if !ok {
		n.mu.Unlock()
		return false, nil
	}

	if !d.Death() {
		n.mu.Unlock()
		log.Info("node: DeathDevice invalid transition", "device", id)

		return false, nil
	}

	now := time.Now()
	seq := n.seq.TakeSeq()

	payload, err := spb.EncodeDeath(uint64(now.UnixMilli()), uint64(seq), n.compress)
	if err != nil {
		n.mu.Unlock()
		return false, err
	}

	topic := n.topic(spb.DDEATH, id)
	client := n.client
	n.mu.Unlock()

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		return false, err
	}

	n.emit(Event{Kind: EventDeath, Topic: topic, Device: id})

	return true, nil
}

// PublishDeviceData updates the named device's metrics from values and
// publishes DDATA for whichever ones qualify under the report-by-exception
// gate (metric.ShouldPublish). It is a no-op if the device is not born.
func (n *Node) PublishDeviceData(ctx context.Context, id string, values map[string]metric.Value) error {
	n.mu.Lock()

	d, ok := n.devices[id]
	if !ok || !d.IsBorn() {
		n.mu.Unlock()
		return nil
	}

	now := time.Now()

	var wire []spb.Metric
	var changed []*metric.Metric
	var changedVals []metric.Value

	for name, v := range values {
		m, ok := d.Metrics[name]
		if !ok {
			continue
		}

		if !metric.ShouldPublish(m, v, now) {
			continue
		}

		wire = append(wire, metric.ToWire(name, v, now))
		changed = append(changed, m)
		changedVals = append(changedVals, v)
	}

	if len(wire) == 0 {
		n.mu.Unlock()
		return nil
	}

	seq := n.seq.TakeSeq()

	payload, err := spb.EncodeData(uint64(now.UnixMilli()), wire, uint64(seq), n.compress)
	if err != nil {
		n.mu.Unlock()
		return err
	}

	topic := n.topic(spb.DDATA, id)
	client := n.client
	n.mu.Unlock()

	if err := client.Publish(ctx, topic, 0, false, payload); err != nil {
		return err
	}

	n.mu.Lock()
	for i, m := range changed {
		m.MarkPublished(now, changedVals[i])
	}
	n.mu.Unlock()

	n.emit(Event{Kind: EventDData, Topic: topic, Device: id})
	n.emit(Event{Kind: PublishEventKind(spb.DDATA), Topic: topic, Device: id})

	return nil
}
