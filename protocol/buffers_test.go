package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()

	scratch.Output([]byte{1, 2, 3})
	if scratch.CurPosition() != 3 {
		t.Errorf("Expected position 3, got %d", scratch.CurPosition())
	}

	scratch.Output([]byte{4, 5})
	if scratch.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", scratch.CurPosition())
	}

	scratch.Update(0, 99)
	if scratch.Result()[0] != 99 {
		t.Errorf("Expected first byte to be 99, got %d", scratch.Result()[0])
	}

	// Positions past the write cursor are not touched
	scratch.Update(10, 42)
	if scratch.CurPosition() != 5 {
		t.Errorf("Update past the end moved the cursor to %d", scratch.CurPosition())
	}

	since := scratch.DataSince(2)
	if !bytes.Equal(since, []byte{3, 4, 5}) {
		t.Errorf("DataSince(2) failed: expected [3 4 5], got %v", since)
	}
	if scratch.DataSince(6) != nil {
		t.Error("DataSince past the end should be nil")
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 || len(scratch.Result()) != 0 {
		t.Errorf("After reset, expected position 0, got %d", scratch.CurPosition())
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax+10))
	if scratch.CurPosition() != MessageMax {
		t.Errorf("Expected output to stop at %d, got %d", MessageMax, scratch.CurPosition())
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if fifo.Available() != 0 {
		t.Errorf("Empty FIFO should have 0 available, got %d", fifo.Available())
	}
	if fifo.Free() != 9 {
		t.Errorf("Empty size-10 FIFO should have 9 free, got %d", fifo.Free())
	}

	written := fifo.Write([]byte{1, 2, 3, 4, 5})
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}
	if !bytes.Equal(fifo.Data(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Data mismatch: got %v", fifo.Data())
	}

	fifo.Pop(3)
	if fifo.Available() != 2 {
		t.Errorf("After popping 3, expected 2 available, got %d", fifo.Available())
	}

	// Popping more than is available empties the buffer
	fifo.Pop(100)
	if fifo.Available() != 0 {
		t.Errorf("Expected empty FIFO, got %d available", fifo.Available())
	}

	fifo.Reset()
	written = fifo.Write(make([]byte, 12))
	if written != 9 { // One slot stays free to tell full from empty
		t.Errorf("Expected to write 9 bytes to size-10 FIFO, wrote %d", written)
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Pop(2)

	written := fifo.Write([]byte{5, 6})
	if written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}

	if got := fifo.Data(); !bytes.Equal(got, []byte{3, 4, 5, 6}) {
		t.Errorf("Wrap-around data mismatch: got %v", got)
	}

	fifo.Pop(3)
	if got := fifo.Data(); !bytes.Equal(got, []byte{6}) {
		t.Errorf("After pop, expected [6], got %v", got)
	}
}
