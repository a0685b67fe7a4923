package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{name: "empty", data: []byte{}, expected: 0xFFFF},
		{name: "check string", data: []byte("123456789"), expected: 0x6F91},
	}

	for _, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("%s: CRC16 = 0x%04X, expected 0x%04X", tc.name, got, tc.expected)
		}
	}
}

func TestCRC16Different(t *testing.T) {
	// A single changed bit must change the checksum
	data1 := []byte{0x01, 0x02, 0x03}
	data2 := []byte{0x01, 0x02, 0x07}

	if CRC16(data1) == CRC16(data2) {
		t.Errorf("CRC16 collision: both inputs produced %04X", CRC16(data1))
	}
}
