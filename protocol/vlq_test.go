package protocol

import (
	"bytes"
	"testing"
)

func TestVLQEncoding(t *testing.T) {
	testCases := []struct {
		value int32
		want  []byte
	}{
		{0, []byte{0x00}},
		{95, []byte{0x5F}},
		{96, []byte{0x80, 0x60}},
		{-1, []byte{0x7F}},
		{-32, []byte{0x60}},
		{-33, []byte{0xFF, 0x5F}},
	}

	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, tc.value)
		if got := output.Result(); !bytes.Equal(got, tc.want) {
			t.Errorf("EncodeVLQInt(%d) = %X, want %X", tc.value, got, tc.want)
		}
	}
}

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 127, -127, 128, -128, 1000, -1000,
		65535, -65535, 1000000, -1000000, 1<<31 - 1, -1 << 31,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		data := output.Result()

		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d", expected, decoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), expected)
		}
	}
}

func TestVLQUintFullRange(t *testing.T) {
	for _, expected := range []uint32{0, 0x7FFFFF, 0xFFFFFF, 0x80000000, 0xFFFFFFFF} {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)
		data := output.Result()

		decoded, err := DecodeVLQUint(&data)
		if err != nil || decoded != expected {
			t.Errorf("VLQ uint %d decoded as %d (%v)", expected, decoded, err)
		}
	}
}

func TestVLQDecodeTruncated(t *testing.T) {
	data := []byte{}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for empty input, got %v", err)
	}

	data = []byte{0x80}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for truncated input, got %v", err)
	}
}

func TestDecodeVLQUints(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQUint(output, 3)
	EncodeVLQUint(output, 100000)
	data := output.Result()

	var a, b, c uint32
	if err := DecodeVLQUints(&data, &a, &b); err != nil {
		t.Fatalf("DecodeVLQUints failed: %v", err)
	}
	if a != 3 || b != 100000 {
		t.Errorf("Decoded %d, %d; want 3, 100000", a, b)
	}
	if err := DecodeVLQUints(&data, &c); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQBytes(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQBytes(output, []byte("abc"))
	EncodeVLQUint(output, 9)
	data := output.Result()

	b, err := DecodeVLQBytes(&data)
	if err != nil || string(b) != "abc" {
		t.Fatalf("DecodeVLQBytes = %q, %v", b, err)
	}
	if v, _ := DecodeVLQUint(&data); v != 9 {
		t.Errorf("Trailing value = %d, want 9", v)
	}

	short := []byte{5, 'a'}
	if _, err := DecodeVLQBytes(&short); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}
