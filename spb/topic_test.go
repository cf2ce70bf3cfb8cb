package spb_test

import (
	"testing"

	"github.com/joyautomation/synapse-go/spb"
)

func TestParseTopicNode(t *testing.T) {
	tp, err := spb.ParseTopic("spBv1.0/Plant/NBIRTH/Edge1")
	if err != nil {
		t.Fatal(err)
	}

	want := spb.Topic{Version: "spBv1.0", GroupID: "Plant", Command: spb.NBIRTH, EdgeNode: "Edge1"}
	if tp != want {
		t.Fatalf("ParseTopic = %+v, want %+v", tp, want)
	}

	if s := tp.String(); s != "spBv1.0/Plant/NBIRTH/Edge1" {
		t.Fatalf("String() = %q", s)
	}
}

func TestParseTopicDevice(t *testing.T) {
	tp, err := spb.ParseTopic("spBv1.0/Plant/DDATA/Edge1/Pump1")
	if err != nil {
		t.Fatal(err)
	}

	want := spb.Topic{Version: "spBv1.0", GroupID: "Plant", Command: spb.DDATA, EdgeNode: "Edge1", DeviceID: "Pump1"}
	if tp != want {
		t.Fatalf("ParseTopic = %+v, want %+v", tp, want)
	}
}

func TestParseTopicState(t *testing.T) {
	tp, err := spb.ParseTopic("STATE/scada1")
	if err != nil {
		t.Fatal(err)
	}

	if !tp.State || tp.EdgeNode != "scada1" {
		t.Fatalf("ParseTopic(STATE) = %+v", tp)
	}

	if s := tp.String(); s != "STATE/scada1" {
		t.Fatalf("String() = %q", s)
	}
}

func TestParseTopicInvalid(t *testing.T) {
	cases := []string{
		"",
		"spBv1.0/Plant/NBIRTH",
		"spBv1.0/Plant/NBIRTH/Edge1/Extra",
		"spBv1.0/Plant/DDATA/Edge1",
	}

	for _, c := range cases {
		if _, err := spb.ParseTopic(c); err == nil {
			t.Errorf("ParseTopic(%q) succeeded, want error", c)
		}
	}
}

func TestStateTopic(t *testing.T) {
	if got := spb.StateTopic("scada1"); got != "STATE/scada1" {
		t.Fatalf("StateTopic = %q", got)
	}
}
