package host

import "github.com/joyautomation/synapse-go/spb"

// EventKind identifies the kind of event a Host emits on its bus, matching
// the surface listed in spec §4.9 for the host side.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventClosed       EventKind = "closed"
	EventError        EventKind = "error"
	EventState        EventKind = "state"
	EventNBirth       EventKind = "nbirth"
	EventDBirth       EventKind = "dbirth"
	EventNData        EventKind = "ndata"
	EventDData        EventKind = "ddata"
	EventNDeath       EventKind = "ndeath"
	EventDDeath       EventKind = "ddeath"
	EventNCmd         EventKind = "ncmd"
	EventDCmd         EventKind = "dcmd"
	EventMessage      EventKind = "message"
)

// Event is one item delivered on a Host's event bus.
type Event struct {
	Kind    EventKind
	Topic   string
	Group   string
	Node    string
	Device  string
	Payload *spb.Payload
	State   string // ONLINE or OFFLINE, set only for EventState
	Err     error
}

func (h *Host) emit(e Event) {
	h.ev.Emit(string(e.Kind), e)
}
