package spb

import "strings"

// CommandType is the Sparkplug message type segment of a topic:
// NBIRTH, NDEATH, NDATA, NCMD, DBIRTH, DDEATH, DDATA, DCMD.
type CommandType string

const (
	NBIRTH CommandType = "NBIRTH"
	NDEATH CommandType = "NDEATH"
	NDATA  CommandType = "NDATA"
	NCMD   CommandType = "NCMD"
	DBIRTH CommandType = "DBIRTH"
	DDEATH CommandType = "DDEATH"
	DDATA  CommandType = "DDATA"
	DCMD   CommandType = "DCMD"
)

// IsDevice reports whether c is one of the device-scoped command types,
// which carry a DeviceID segment.
func (c CommandType) IsDevice() bool {
	switch c {
	case DBIRTH, DDEATH, DDATA, DCMD:
		return true
	default:
		return false
	}
}

// Topic is the parsed form of a Sparkplug topic string. State is true for
// the reserved "STATE/<primaryHostId>" topic, in which case only Version
// (unused) and EdgeNode (holding the primaryHostId) are meaningful; for a
// normal Sparkplug topic State is false and Version/GroupID/Command/EdgeNode
// are all populated, with DeviceID set only when Command.IsDevice().
type Topic struct {
	Version  string
	GroupID  string
	Command  CommandType
	EdgeNode string
	DeviceID string

	State bool
}

// ParseTopic parses s into a Topic. It returns ErrInvalidTopic if s does not
// match the Sparkplug grammar:
//
//	<version>/<groupId>/<commandType>/<edgeNode>[/<deviceId>]
//	STATE/<primaryHostId>
func ParseTopic(s string) (Topic, error) {
	parts := strings.Split(s, "/")

	if len(parts) == 2 && parts[0] == "STATE" {
		return Topic{State: true, EdgeNode: parts[1]}, nil
	}

	if len(parts) != 4 && len(parts) != 5 {
		return Topic{}, ErrInvalidTopic
	}

	t := Topic{
		Version:  parts[0],
		GroupID:  parts[1],
		Command:  CommandType(parts[2]),
		EdgeNode: parts[3],
	}

	if len(parts) == 5 {
		t.DeviceID = parts[4]
	}

	if t.Command.IsDevice() != (len(parts) == 5) {
		return Topic{}, ErrInvalidTopic
	}

	return t, nil
}

// String formats t back into its wire form.
func (t Topic) String() string {
	if t.State {
		return "STATE/" + t.EdgeNode
	}

	s := t.Version + "/" + t.GroupID + "/" + string(t.Command) + "/" + t.EdgeNode
	if t.DeviceID != "" {
		s += "/" + t.DeviceID
	}

	return s
}

// StateTopic returns the reserved STATE topic for primaryHostID.
func StateTopic(primaryHostID string) string {
	return "STATE/" + primaryHostID
}
