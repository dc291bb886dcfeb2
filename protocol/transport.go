package protocol

import "sync/atomic"

// CommandHandler handles one decoded command. The handler decodes its own
// arguments from data, advancing it.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the MCU side of the protocol: it parses host frames, runs
// commands, and queues ACKs and responses into an OutputBuffer.
type Transport struct {
	nextSequence  atomic.Uint32 // expected host sequence (0x10-0x1F)
	output        OutputBuffer
	handler       CommandHandler
	resetCallback func()
	errors        atomic.Uint32
}

// NewTransport creates a new Transport instance
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{output: output, handler: handler}
	t.nextSequence.Store(MessageDest)
	return t
}

// SetResetCallback sets a callback run when the host restarts its sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// Errors returns the number of malformed frames and failed commands
func (t *Transport) Errors() uint32 {
	return t.errors.Load()
}

// Receive processes data and returns the number of bytes consumed.
// Unconsumed bytes hold a partial frame and must be passed again.
func (t *Transport) Receive(data []byte) int {
	total := 0
	for len(data) > 0 {
		frame, n, err := NextFrame(data)
		data = data[n:]
		total += n
		if err == ErrFrameIncomplete {
			break
		}
		if err != nil {
			t.errors.Add(1)
			t.encodeAck()
			continue
		}
		t.handleFrame(frame)
	}
	return total
}

func (t *Transport) handleFrame(frame Frame) {
	if frame.Sequence&^MessageSeqMask != MessageDest {
		t.errors.Add(1)
		return
	}

	expected := uint8(t.nextSequence.Load())
	if frame.Sequence == MessageDest && expected != MessageDest {
		expected = MessageDest
		t.nextSequence.Store(MessageDest)
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}

	if frame.Sequence == expected {
		t.nextSequence.Store(uint32(NextSequence(expected)))
		t.parseFrame(frame.Payload)
	}
	// A mismatched sequence still gets an ACK carrying the expected
	// sequence, which the host treats as a NAK.
	t.encodeAck()
}

func (t *Transport) parseFrame(payload []byte) {
	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.errors.Add(1)
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			t.errors.Add(1)
			return
		}
	}
}

func (t *Transport) encodeAck() {
	_ = EncodeFrame(t.output, uint8(t.nextSequence.Load()), nil)
}

// SendCommand encodes a response frame with the given arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmdID))
	if args != nil {
		args(payload)
	}
	if payload.Overflowed() {
		return ErrFrameTooLong
	}
	return EncodeFrame(t.output, uint8(t.nextSequence.Load()), payload.Result())
}

// Reset restores the initial sequence state
func (t *Transport) Reset() {
	t.nextSequence.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}
