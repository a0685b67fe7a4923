package core

import (
	"strings"
	"testing"
)

func TestEventRing(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	if len(Events()) != 0 {
		t.Fatalf("Expected empty ring, got %v", Events())
	}

	RecordEvent(EvtBegin, 0, 0x50)
	RecordEvent(EvtClockDivider, 2, 0x52)
	evts := Events()
	if len(evts) != 2 || evts[0].Kind != EvtBegin || evts[1].Arg != 2 {
		t.Errorf("Unexpected events: %+v", evts)
	}

	// Overfill: only the newest EventRingSize survive, oldest first
	for i := 0; i < EventRingSize+3; i++ {
		RecordEvent(EvtDataMode, uint8(i), 0)
	}
	evts = Events()
	if len(evts) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(evts))
	}
	if evts[0].Arg != 3 || evts[EventRingSize-1].Arg != EventRingSize+2 {
		t.Errorf("Ring order wrong: first arg %d, last arg %d", evts[0].Arg, evts[EventRingSize-1].Arg)
	}
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtTimeout, 0xA5, 0x5C)
	DumpEvents()

	if len(lines) != 3 {
		t.Fatalf("Expected header, one event and footer, got %q", lines)
	}
	if lines[1] != "[SPI] TIMEOUT! arg=165 ctl=0x5c" {
		t.Errorf("Unexpected event line %q", lines[1])
	}
}

func TestDebugPrintlnGate(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")

	if strings.Join(lines, ",") != "shown" {
		t.Errorf("Expected only the enabled message, got %q", lines)
	}
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled should report true")
	}
}

func TestStrutil(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", 255: "255", -42: "-42"} {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, expected %q", n, got, want)
		}
	}
	if got := hex8(0x0F); got != "0f" {
		t.Errorf("hex8(0x0f) = %q", got)
	}
}

func TestRejectedOperationsRecorded(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	bus := NewBus(nil, nil, nil, BusConfig{Layout: LayoutATmega328P})
	bus.End()
	bus.SetClockDivider(1)

	evts := Events()
	if len(evts) != 2 {
		t.Fatalf("Expected 2 events, got %+v", evts)
	}
	if evts[0].Kind != EvtRejected || evts[0].Arg != opEnd {
		t.Errorf("Expected rejected End, got %+v", evts[0])
	}
	if evts[1].Kind != EvtRejected || evts[1].Arg != opClockDivider {
		t.Errorf("Expected rejected SetClockDivider, got %+v", evts[1])
	}
}
