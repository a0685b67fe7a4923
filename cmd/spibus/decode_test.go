package main

import (
	"bytes"
	"testing"
)

func TestDecodeStream(t *testing.T) {
	testCases := []struct {
		name  string
		data  []byte
		width int
		want  []uint32
		rest  []byte
	}{
		{name: "bytes", data: []byte{1, 2, 3}, width: 8, want: []uint32{1, 2, 3}},
		{name: "words", data: []byte{0x12, 0x34, 0xBE, 0xEF}, width: 16, want: []uint32{0x1234, 0xBEEF}},
		{name: "odd word", data: []byte{0x12, 0x34, 0x56}, width: 16, want: []uint32{0x1234}, rest: []byte{0x56}},
		{name: "dword", data: []byte{0xDD, 0xCC, 0xBB, 0xAA}, width: 32, want: []uint32{0xAABBCCDD}},
		{name: "short dword", data: []byte{1, 2}, width: 32, rest: []byte{1, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, rest, err := decodeStream(tc.data, tc.width)
			if err != nil {
				t.Fatalf("decodeStream failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Got %x, expected %x", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Value %d: got 0x%x, expected 0x%x", i, got[i], tc.want[i])
				}
			}
			if !bytes.Equal(rest, tc.rest) {
				t.Errorf("Rest % x, expected % x", rest, tc.rest)
			}
		})
	}

	if _, _, err := decodeStream([]byte{1}, 24); err == nil {
		t.Error("Expected an error for width 24")
	}
}

func TestPrintTransaction(t *testing.T) {
	var out bytes.Buffer
	if err := printTransaction(&out, 3, 0.5, 16, []uint32{0x1234}, []byte{0x56}); err != nil {
		t.Fatalf("printTransaction failed: %v", err)
	}
	want := "tx 3 t=0.500000 0x1234 rest=0x56\n"
	if out.String() != want {
		t.Errorf("Output %q, expected %q", out.String(), want)
	}
}
