package seqnum_test

import (
	"testing"

	"github.com/joyautomation/synapse-go/seqnum"
)

func TestCounterWraps(t *testing.T) {
	var c seqnum.Counter = 255
	if got := c.Next(); got != 0 {
		t.Fatalf("Next() at 255 = %d, want 0", got)
	}

	c.Inc()
	if c != 0 {
		t.Fatalf("Inc() at 255 = %d, want 0", c)
	}
}

func TestPairNewSessionResetsSeq(t *testing.T) {
	var p seqnum.Pair

	p.TakeSeq()
	p.TakeSeq()

	p.NewSession()

	if p.Seq != 0 {
		t.Fatalf("Seq after NewSession = %d, want 0", p.Seq)
	}
	if got := p.TakeSeq(); got != 0 {
		t.Fatalf("first TakeSeq after NewSession = %d, want 0", got)
	}
	if got := p.TakeSeq(); got != 1 {
		t.Fatalf("second TakeSeq after NewSession = %d, want 1", got)
	}
}

func TestPairNewSessionBumpsBdSeq(t *testing.T) {
	var p seqnum.Pair

	p.NewSession()
	if p.BdSeq != 1 {
		t.Fatalf("BdSeq after first NewSession = %d, want 1", p.BdSeq)
	}

	p.NewSession()
	if p.BdSeq != 2 {
		t.Fatalf("BdSeq after second NewSession = %d, want 2", p.BdSeq)
	}
}

func TestPairSeqWrapsAcrossSession(t *testing.T) {
	var p seqnum.Pair
	p.Seq = 255

	if got := p.TakeSeq(); got != 255 {
		t.Fatalf("TakeSeq at 255 = %d, want 255", got)
	}
	if p.Seq != 0 {
		t.Fatalf("Seq after wrap = %d, want 0", p.Seq)
	}
}
