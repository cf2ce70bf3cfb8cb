// Package device implements the device sub-machine: the born/dead lifecycle
// of a device owned by an edge node.
package device

import (
	"github.com/joyautomation/synapse-go/metric"
)

// State is a device's born/dead state.
type State uint8

const (
	Dead State = iota
	Born
)

func (s State) String() string {
	if s == Born {
		return "born"
	}
	return "dead"
}

// Device is a child of an edge node with its own metric set and birth/death
// lifecycle. A Device holds no back-pointer to its owning node; ownership
// flows the other way, with node.Node storing devices by ID and driving
// BirthDevice/DeathDevice itself after checking its own connected.born
// guard. This keeps Device a plain value the node package can reason about
// without a cyclic reference.
type Device struct {
	ID      string
	Metrics map[string]*metric.Metric

	state State
}

// New returns a Device in the initial dead state.
func New(id string) *Device {
	return &Device{ID: id, Metrics: make(map[string]*metric.Metric), state: Dead}
}

// State reports d's current state.
func (d *Device) State() State {
	return d.state
}

// IsBorn reports whether d is currently born.
func (d *Device) IsBorn() bool {
	return d.state == Born
}

// Birth transitions d from dead to born and reports whether the transition
// took place. It is a no-op returning false if d is already born; the
// caller (node.Node.BirthDevice) is responsible for the node.connected.born
// guard and for publishing DBIRTH only when this returns true.
func (d *Device) Birth() bool {
	if d.state != Dead {
		return false
	}
	d.state = Born
	return true
}

// Death transitions d from born to dead and reports whether the transition
// took place. It is a no-op returning false if d is already dead.
func (d *Device) Death() bool {
	if d.state != Born {
		return false
	}
	d.state = Dead
	return true
}
