package protocol

import (
	"bytes"
	"testing"
)

func encodeTestFrame(t *testing.T, seq uint8, payload []byte) []byte {
	t.Helper()
	out := NewScratchOutput()
	if err := EncodeFrame(out, seq, payload); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	return append([]byte(nil), out.Result()...)
}

func TestEncodeAckFrame(t *testing.T) {
	got := encodeTestFrame(t, MessageDest, nil)
	want := []byte{5, MessageDest, 0x9E, 0x81, MessageValueSync}
	if !bytes.Equal(got, want) {
		t.Errorf("Ack frame = %X, want %X", got, want)
	}
}

func TestNextFrame(t *testing.T) {
	data := encodeTestFrame(t, 0x13, []byte{1, 2, 3})

	frame, n, err := NextFrame(data)
	if err != nil {
		t.Fatalf("NextFrame failed: %v", err)
	}
	if n != len(data) || frame.Sequence != 0x13 || !bytes.Equal(frame.Payload, []byte{1, 2, 3}) {
		t.Errorf("Unexpected frame %+v consumed %d", frame, n)
	}
}

func TestNextFrameIncomplete(t *testing.T) {
	data := encodeTestFrame(t, MessageDest, []byte{9, 9})

	for cut := 0; cut < len(data); cut++ {
		_, n, err := NextFrame(data[:cut])
		if err != ErrFrameIncomplete || n != 0 {
			t.Errorf("Prefix %d: got (%d, %v), want (0, ErrFrameIncomplete)", cut, n, err)
		}
	}

	_, n, err := NextFrame(append([]byte{MessageValueSync, MessageValueSync}, data[:3]...))
	if err != ErrFrameIncomplete || n != 2 {
		t.Errorf("Leading sync bytes: got (%d, %v), want (2, ErrFrameIncomplete)", n, err)
	}
}

func TestNextFrameResync(t *testing.T) {
	good := encodeTestFrame(t, MessageDest, []byte{4})
	bad := encodeTestFrame(t, MessageDest, []byte{5})
	bad[2] ^= 0xFF

	data := append(bad, good...)
	_, n, err := NextFrame(data)
	if err != ErrFrameInvalid || n != len(bad) {
		t.Fatalf("Corrupt frame: got (%d, %v), want (%d, ErrFrameInvalid)", n, err, len(bad))
	}

	frame, _, err := NextFrame(data[n:])
	if err != nil || !bytes.Equal(frame.Payload, []byte{4}) {
		t.Errorf("Frame after resync = %+v, %v", frame, err)
	}
}

func TestNextFrameBadLength(t *testing.T) {
	data := []byte{0xFF, 0x10, 0x00, 0x00, 0x00, MessageValueSync, 1}
	_, n, err := NextFrame(data)
	if err != ErrFrameInvalid || n != 6 {
		t.Errorf("Got (%d, %v), want (6, ErrFrameInvalid)", n, err)
	}
}

func TestEncodeFrameTooLong(t *testing.T) {
	out := NewScratchOutput()
	if err := EncodeFrame(out, MessageDest, make([]byte, MessageLengthMax)); err != ErrFrameTooLong {
		t.Errorf("Expected ErrFrameTooLong, got %v", err)
	}
	if len(out.Result()) != 0 {
		t.Error("Oversized frame wrote output")
	}
}

func TestNextSequence(t *testing.T) {
	if NextSequence(0x10) != 0x11 || NextSequence(0x1F) != 0x10 {
		t.Errorf("Sequence did not wrap within 0x10-0x1F")
	}
}

const debugText = "[UPTIME] === Event Ring Dump ===\r\n[UPTIME] ALARM_SET ch=1 clock=100 v=0\r\n[UPTIME] === End Dump ===\r\n"

// scanFrames parses every complete frame in data, returning the frames and
// the number of bytes consumed
func scanFrames(data []byte) ([]Frame, int) {
	var frames []Frame
	consumed := 0
	for len(data) > 0 {
		frame, n, err := NextFrame(data)
		data = data[n:]
		consumed += n
		if err == ErrFrameIncomplete {
			break
		}
		if err == nil {
			frames = append(frames, frame)
		}
	}
	return frames, consumed
}

func TestNextFrameAfterStrayText(t *testing.T) {
	ack := encodeTestFrame(t, 0x11, nil)
	data := append([]byte(debugText), ack...)

	frames, consumed := scanFrames(data)
	if len(frames) != 1 || frames[0].Sequence != 0x11 || len(frames[0].Payload) != 0 {
		t.Fatalf("Expected the ACK after the text, got %+v", frames)
	}
	if consumed != len(data) {
		t.Errorf("Consumed %d of %d bytes", consumed, len(data))
	}
}

func TestNextFrameAfterStrayTextSplit(t *testing.T) {
	ack := encodeTestFrame(t, 0x11, nil)
	data := append([]byte(debugText), ack[:2]...)

	frames, consumed := scanFrames(data)
	if len(frames) != 0 {
		t.Fatalf("Unexpected frames %+v", frames)
	}
	if consumed != len(debugText) {
		t.Fatalf("Consumed %d bytes, want the %d bytes of text", consumed, len(debugText))
	}

	rest := append(data[consumed:], ack[2:]...)
	frames, _ = scanFrames(rest)
	if len(frames) != 1 || frames[0].Sequence != 0x11 {
		t.Errorf("Expected the ACK once complete, got %+v", frames)
	}
}

func TestNextFrameWrongDestination(t *testing.T) {
	data := encodeTestFrame(t, 0x21, []byte{1})
	if _, _, err := NextFrame(data); err != ErrFrameInvalid {
		t.Errorf("Expected ErrFrameInvalid for sequence 0x21, got %v", err)
	}
}
