package protocol

import "errors"

const (
	MessageMax         = 256 // Scratch output capacity
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F
)

var (
	ErrFrameIncomplete = errors.New("incomplete frame")
	ErrFrameInvalid    = errors.New("invalid frame")
	ErrFrameTooLong    = errors.New("frame too long")
)

// Frame is one decoded message block
type Frame struct {
	Sequence uint8
	Payload  []byte // aliases the scanned input
}

// NextFrame scans data for the next message block. It returns the number of
// bytes the caller may discard: on ErrFrameIncomplete only leading sync bytes
// are consumed; on ErrFrameInvalid bytes are dropped up to the next point
// where a frame may start, so parsing can resynchronize.
func NextFrame(data []byte) (Frame, int, error) {
	skip := 0
	for skip < len(data) && data[skip] == MessageValueSync {
		skip++
	}
	data = data[skip:]

	if len(data) < MessageLengthMin {
		return Frame{}, skip, ErrFrameIncomplete
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax ||
		data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return Frame{}, skip + resync(data), ErrFrameInvalid
	}
	if len(data) < msgLen {
		return Frame{}, skip, ErrFrameIncomplete
	}
	if !frameValid(data[:msgLen]) {
		return Frame{}, skip + resync(data), ErrFrameInvalid
	}

	return Frame{
		Sequence: data[MessagePositionSeq],
		Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
	}, skip + msgLen, nil
}

// frameValid checks the trailer of a block of exactly its declared length
func frameValid(block []byte) bool {
	msgLen := len(block)
	if block[msgLen-MessageTrailerSync] != MessageValueSync {
		return false
	}
	frameCRC := uint16(block[msgLen-MessageTrailerCRC])<<8 |
		uint16(block[msgLen-MessageTrailerCRC+1])
	return frameCRC == CRC16(block[:msgLen-MessageTrailerSize])
}

// resync returns how many bytes of a rejected block to drop. It stops after
// the next sync byte, or earlier at an offset where a valid frame starts or
// where a frame may start but has not fully arrived. Stray bytes on the link,
// such as debug text, therefore never swallow the frame that follows them.
func resync(data []byte) int {
	for i := 1; i < len(data); i++ {
		if data[i-1] == MessageValueSync || frameStart(data[i:]) {
			return i
		}
	}
	return len(data)
}

// frameStart reports whether data begins with a valid frame or with a
// plausible prefix of one
func frameStart(data []byte) bool {
	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return false
	}
	if len(data) > MessagePositionSeq && data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return false
	}
	if len(data) < msgLen {
		return true
	}
	return frameValid(data[:msgLen])
}

// EncodeFrame writes a complete message block around payload
func EncodeFrame(output OutputBuffer, seq uint8, payload []byte) error {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return ErrFrameTooLong
	}

	var buf [MessageLengthMax]byte
	buf[MessagePositionLen] = uint8(msgLen)
	buf[MessagePositionSeq] = seq
	copy(buf[MessageHeaderSize:], payload)

	crc := CRC16(buf[:msgLen-MessageTrailerSize])
	buf[msgLen-3] = uint8(crc >> 8)
	buf[msgLen-2] = uint8(crc)
	buf[msgLen-1] = MessageValueSync

	output.Output(buf[:msgLen])
	return nil
}

// NextSequence advances a sequence number, keeping the destination bits
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
