package core_test

import (
	"testing"

	"spibus/core"
)

func TestWordOrder(t *testing.T) {
	b := core.EncodeWord(0x1234)
	if b != [2]byte{0x12, 0x34} {
		t.Errorf("EncodeWord(0x1234) = % x", b)
	}
	if got := core.DecodeWord(b); got != 0x1234 {
		t.Errorf("DecodeWord = 0x%04x", got)
	}
}

func TestDWordOrder(t *testing.T) {
	testCases := []struct {
		value uint32
		wire  [4]byte
	}{
		{0xAABBCCDD, [4]byte{0xDD, 0xCC, 0xBB, 0xAA}},
		{0x00000001, [4]byte{0x01, 0x00, 0x00, 0x00}},
		{0x80000000, [4]byte{0x00, 0x00, 0x00, 0x80}},
	}

	for _, tc := range testCases {
		b := core.EncodeDWord(tc.value)
		if b != tc.wire {
			t.Errorf("EncodeDWord(0x%08x) = % x, expected % x", tc.value, b, tc.wire)
		}
		if got := core.DecodeDWord(tc.wire); got != tc.value {
			t.Errorf("DecodeDWord(% x) = 0x%08x, expected 0x%08x", tc.wire, got, tc.value)
		}
	}
}

// The helpers must agree with what the bus actually clocks out
func TestOrderMatchesBus(t *testing.T) {
	bus, p, _ := newBus()
	mustBegin(t, bus)

	bus.TransferWord(0xCAFE)
	bus.TransferDWord(0x01234567)

	w := core.EncodeWord(0xCAFE)
	d := core.EncodeDWord(0x01234567)
	want := append(w[:], d[:]...)
	if string(p.MOSI) != string(want) {
		t.Errorf("Bus sent % x, helpers give % x", p.MOSI, want)
	}
}
