package device_test

import (
	"testing"

	"github.com/joyautomation/synapse-go/device"
)

func TestDeviceInitialStateIsDead(t *testing.T) {
	d := device.New("pump1")
	if d.State() != device.Dead || d.IsBorn() {
		t.Fatalf("initial state = %v, want dead", d.State())
	}
}

func TestDeviceBirthThenDeath(t *testing.T) {
	d := device.New("pump1")

	if !d.Birth() {
		t.Fatal("Birth() from dead = false, want true")
	}
	if !d.IsBorn() {
		t.Fatal("state after Birth() is not born")
	}

	if !d.Death() {
		t.Fatal("Death() from born = false, want true")
	}
	if d.IsBorn() {
		t.Fatal("state after Death() is still born")
	}
}

func TestDeviceGuardFailures(t *testing.T) {
	d := device.New("pump1")

	if d.Death() {
		t.Fatal("Death() from dead = true, want false (guard: device.born)")
	}

	d.Birth()
	if d.Birth() {
		t.Fatal("Birth() from born = true, want false (guard: device.dead)")
	}
	if d.State() != device.Born {
		t.Fatal("failed Birth() guard mutated observable state")
	}
}
