package protocol

// OutputBuffer receives encoded protocol bytes
type OutputBuffer interface {
	Output(data []byte)
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer.
// Bytes beyond capacity are dropped and reported by Overflowed.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Overflowed reports whether data was dropped since the last Reset
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer is a byte queue for serial input. Data is kept contiguous so
// frames can be parsed in place.
type FifoBuffer struct {
	buf []byte
	n   int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count written
func (f *FifoBuffer) Write(data []byte) int {
	n := copy(f.buf[f.n:], data)
	f.n += n
	return n
}

// Data returns the buffered bytes; valid until the next Write or Pop
func (f *FifoBuffer) Data() []byte {
	return f.buf[:f.n]
}

// Available returns the number of buffered bytes
func (f *FifoBuffer) Available() int {
	return f.n
}

// Free returns the remaining capacity
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.n
}

// Pop removes n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if n >= f.n {
		f.n = 0
		return
	}
	copy(f.buf, f.buf[n:f.n])
	f.n -= n
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.n = 0
}
