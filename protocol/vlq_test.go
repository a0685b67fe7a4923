package protocol

import (
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 95, 96, -32, -33,
		127, -127, 128, -128, 255, -255,
		1000, -1000, 65535, -65535,
		1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode didn't consume all bytes for value %d: %d bytes remaining", expected, len(data))
		}
	}
}

func TestVLQEncodeDecodeUint(t *testing.T) {
	for _, expected := range []uint32{0, 0x4C, 0xFF, 1000, 0xFFFFFFFF} {
		data := EncodeVLQ(int32(expected))
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d", expected, decoded)
		}
	}
}

func TestVLQLength(t *testing.T) {
	testCases := []struct {
		value int32
		size  int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{-33, 2},
		{0x4E, 1},
		{0xFF, 2},
		{-1 << 31, 5},
	}
	for _, tc := range testCases {
		if got := len(EncodeVLQ(tc.value)); got != tc.size {
			t.Errorf("EncodeVLQ(%d) is %d bytes, expected %d", tc.value, got, tc.size)
		}
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x80} // Continuation byte but no following byte
	_, err := DecodeVLQInt(&data)
	if err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}

	data = nil
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for empty input, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
