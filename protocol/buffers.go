package protocol

// InputBuffer provides an abstraction for reading incoming protocol data
type InputBuffer interface {
	// Data returns the available data slice
	Data() []byte

	// Available returns the number of bytes available
	Available() int

	// Pop removes n bytes from the front of the buffer
	Pop(n int)
}

// OutputBuffer provides an abstraction for writing outgoing protocol data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer.
// Output beyond MessageMax is dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a circular buffer for serial input
type FifoBuffer struct {
	buf     []byte
	scratch []byte
	read    int
	write   int
	size    int
}

// NewFifoBuffer creates a new FifoBuffer holding up to capacity-1 bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:     make([]byte, capacity),
		scratch: make([]byte, capacity),
		size:    capacity,
	}
}

// Write appends data and returns how many bytes fit
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Data returns available data as one contiguous slice.
// When the data wraps it is copied into a scratch slice that is only valid
// until the next call.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	firstLen := f.size - f.read
	copy(f.scratch, f.buf[f.read:])
	copy(f.scratch[firstLen:], f.buf[:f.write])
	return f.scratch[:f.Available()]
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.read = (f.read + n) % f.size
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
