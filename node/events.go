package node

import "github.com/joyautomation/synapse-go/spb"

// EventKind enumerates the kinds of event a Node emits on its bus (spec
// §4.9). "publish-<cmd>" is dynamic: see PublishEventKind.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventClosed       EventKind = "closed"
	EventError        EventKind = "error"
	EventBirth        EventKind = "birth"
	EventDeath        EventKind = "death"
	EventNBirth       EventKind = "nbirth"
	EventNData        EventKind = "ndata"
	EventNCmd         EventKind = "ncmd"
	EventDBirth       EventKind = "dbirth"
	EventDData        EventKind = "ddata"
	EventDCmd         EventKind = "dcmd"
	EventMessage      EventKind = "message"
)

// PublishEventKind builds the dynamic "publish-<cmd>" kind emitted
// alongside the fixed kind after every successful publish of cmd.
func PublishEventKind(cmd spb.CommandType) EventKind {
	return EventKind("publish-" + string(cmd))
}

// Event is the payload type carried by a Node's event.Bus.
type Event struct {
	Kind    EventKind
	Topic   string
	Device  string
	Payload *spb.Payload
	Err     error
}

// emit publishes e on n's bus, keyed by its Kind.
func (n *Node) emit(e Event) {
	n.ev.Emit(string(e.Kind), e)
}
