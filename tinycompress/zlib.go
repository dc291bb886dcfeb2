// Package tinycompress writes zlib streams built from stored DEFLATE blocks.
// The output decodes with any zlib reader; the encoder needs no tables and
// only buffers its input, which suits TinyGo targets.
package tinycompress

import (
	"errors"
	"hash/adler32"
	"io"
)

const maxStoredBlock = 0xFFFF

var ErrClosed = errors.New("tinycompress: write to closed writer")

// zlib header: deflate, 32K window, default level, FCHECK valid
var zlibHeader = [2]byte{0x78, 0x9C}

// Writer buffers everything written and emits the zlib stream on Close
type Writer struct {
	output io.Writer
	buf    []byte
	closed bool
}

// NewWriter creates a Writer. sizeHint preallocates the input buffer so
// Write does not grow it on small targets.
func NewWriter(w io.Writer, sizeHint int) *Writer {
	return &Writer{
		output: w,
		buf:    make([]byte, 0, sizeHint),
	}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close writes the stream: header, stored blocks, Adler-32 trailer
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if _, err := w.output.Write(zlibHeader[:]); err != nil {
		return err
	}

	data := w.buf
	for {
		n := len(data)
		if n > maxStoredBlock {
			n = maxStoredBlock
		}
		final := n == len(data)

		var hdr [5]byte
		if final {
			hdr[0] = 0x01
		}
		hdr[1] = byte(n)
		hdr[2] = byte(n >> 8)
		hdr[3] = ^hdr[1]
		hdr[4] = ^hdr[2]
		if _, err := w.output.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := w.output.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
		if final {
			break
		}
	}

	sum := adler32.Checksum(w.buf)
	trailer := [4]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	_, err := w.output.Write(trailer[:])
	return err
}

// Compress returns data as a complete zlib stream
func Compress(data []byte) []byte {
	out := &sliceWriter{buf: make([]byte, 0, len(data)+len(data)/maxStoredBlock*5+11)}
	w := &Writer{output: out, buf: data}
	_ = w.Close()
	return out.buf
}

type sliceWriter struct {
	buf []byte
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}
