package node

import (
	"context"

	"github.com/joyautomation/synapse-go/log"
	"github.com/joyautomation/synapse-go/spb"
)

// rebirthMetricName is the reserved NCMD metric that triggers a full
// republish of NBIRTH (and every born device's DBIRTH) over a fresh MQTT
// session; see requestRebirth.
const rebirthMetricName = "Node Control/Rebirth"

// handleNCMD decodes an inbound NCMD payload and dispatches its reserved
// metrics. Only "Node Control/Rebirth"=true is recognized; unknown NCMD
// metrics are logged and otherwise ignored, matching spec §4.8's reserved-
// metric table.
func (n *Node) handleNCMD(payload []byte) {
	p, err := spb.Decode(payload)
	if err != nil {
		log.Warn("node: invalid NCMD payload", "err", err)
		return
	}

	n.emit(Event{Kind: EventNCmd, Payload: p})

	for _, m := range p.Metrics {
		if m.Name == rebirthMetricName && m.BooleanValue {
			n.requestRebirth()
			return
		}
		if m.Name != rebirthMetricName {
			log.Info("node: unknown NCMD metric ignored", "metric", m.Name)
		}
	}
}

// requestRebirth performs the node's side of an NCMD rebirth request (spec
// §8 scenario 2): NDEATH, end the MQTT session, a fresh connect with a bumped
// bdSeq, NBIRTH with seq reset to 0, then DBIRTH for every device that was
// born before the request. It runs asynchronously so the event loop
// goroutine driving handleNCMD is never blocked on it.
func (n *Node) requestRebirth() {
	go func() {
		ctx := context.Background()

		n.mu.Lock()
		born := make([]string, 0, len(n.deviceOrder))
		for _, id := range n.deviceOrder {
			if n.devices[id].IsBorn() {
				born = append(born, id)
			}
		}
		wasBorn := n.state == ConnectedBorn
		n.mu.Unlock()

		if wasBorn {
			if err := n.Death(ctx); err != nil {
				log.Warn("node: rebirth NDEATH failed", "err", err)
				return
			}
		}

		n.mu.Lock()
		client := n.client
		cancel := n.cancel
		n.state = Disconnected
		n.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if client != nil {
			client.End(250)
		}

		n.dialGate.Reset()

		if err := n.dial(ctx); err != nil {
			log.Warn("node: rebirth dial failed", "err", err)
			return
		}

		if err := n.Birth(ctx); err != nil {
			log.Warn("node: rebirth NBIRTH failed", "err", err)
			return
		}

		for _, id := range born {
			if _, err := n.BirthDevice(ctx, id); err != nil {
				log.Warn("node: rebirth DBIRTH failed", "device", id, "err", err)
			}
		}
	}()
}
