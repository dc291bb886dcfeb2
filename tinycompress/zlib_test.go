package tinycompress

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
)

func inflate(t *testing.T, stream []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("zlib.NewReader failed: %v", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	return out
}

func TestCompressRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"small", []byte(`{"version":"rtcuptime"}`)},
		{"multi-block", bytes.Repeat([]byte("0123456789"), 7000)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := inflate(t, Compress(tc.data))
			if !bytes.Equal(got, tc.data) {
				t.Errorf("Round trip mismatch: got %d bytes, want %d", len(got), len(tc.data))
			}
		})
	}
}

func TestWriterStreams(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 64)
	w.Write([]byte("hello "))
	w.Write([]byte("world"))
	if buf.Len() != 0 {
		t.Error("Writer emitted output before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := inflate(t, buf.Bytes()); string(got) != "hello world" {
		t.Errorf("Got %q", got)
	}

	if _, err := w.Write([]byte("x")); err != ErrClosed {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}

func TestStoredBlockLayout(t *testing.T) {
	stream := Compress([]byte{0xAA})
	want := []byte{0x78, 0x9C, 0x01, 0x01, 0x00, 0xFE, 0xFF, 0xAA, 0x00, 0xAB, 0x00, 0xAB}
	if !bytes.Equal(stream, want) {
		t.Errorf("Stream = %X, want %X", stream, want)
	}
}
