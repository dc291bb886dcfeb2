package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var ErrTransportClosed = errors.New("transport closed")

// Message is a response frame received from the MCU
type Message struct {
	Sequence uint8
	Payload  []byte // owned copy
}

// Command decodes the command ID and returns the remaining arguments
func (m *Message) Command() (uint16, []byte, error) {
	data := m.Payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return 0, nil, err
	}
	return uint16(id), data, nil
}

// HostTransport is the host side of the protocol: it sends commands, waits
// for ACKs, and delivers responses.
type HostTransport struct {
	port       io.ReadWriteCloser
	currentSeq atomic.Uint32

	writeMutex sync.Mutex
	input      *FifoBuffer

	ackChan      chan uint8
	responseChan chan *Message

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport creates a host transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		input:        NewFifoBuffer(512),
		ackChan:      make(chan uint8, 1),
		responseChan: make(chan *Message, 32),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	t.currentSeq.Store(MessageDest)
	go t.readLoop()
	return t
}

// SendCommand writes a command and waits for its ACK
func (t *HostTransport) SendCommand(ctx context.Context, cmdID uint16, args func(output OutputBuffer)) error {
	_, err := t.Send(ctx, cmdID, args)
	return err
}

// Send writes a command, waits for its ACK and returns the acknowledged
// sequence. Responses to the command carry that sequence.
func (t *HostTransport) Send(ctx context.Context, cmdID uint16, args func(output OutputBuffer)) (uint8, error) {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmdID))
	if args != nil {
		args(payload)
	}
	if payload.Overflowed() {
		return 0, ErrFrameTooLong
	}

	seq := uint8(t.currentSeq.Load())
	msg := NewScratchOutput()
	if err := EncodeFrame(msg, seq, payload.Result()); err != nil {
		return 0, err
	}
	if _, err := t.port.Write(msg.Result()); err != nil {
		return 0, fmt.Errorf("write command %d: %w", cmdID, err)
	}

	next := NextSequence(seq)
	for {
		select {
		case ack := <-t.ackChan:
			if ack != next {
				// stale ACK from an earlier exchange
				continue
			}
			t.currentSeq.Store(uint32(next))
			return next, nil
		case <-ctx.Done():
			return 0, fmt.Errorf("waiting for ack of command %d: %w", cmdID, ctx.Err())
		case <-t.stopChan:
			return 0, ErrTransportClosed
		}
	}
}

// Receive waits for the next response message
func (t *HostTransport) Receive(ctx context.Context) (*Message, error) {
	select {
	case msg := <-t.responseChan:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// Responses exposes the response stream for select loops
func (t *HostTransport) Responses() <-chan *Message {
	return t.responseChan
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}

		for chunk := buf[:n]; len(chunk) > 0; {
			w := t.input.Write(chunk)
			chunk = chunk[w:]
			t.processInput()
			if w == 0 {
				// buffer full of garbage; drop it and resync
				t.input.Reset()
			}
		}
	}
}

func (t *HostTransport) processInput() {
	data := t.input.Data()
	consumed := 0
	for len(data) > 0 {
		frame, n, err := NextFrame(data)
		data = data[n:]
		consumed += n
		if err == ErrFrameIncomplete {
			break
		}
		if err != nil {
			continue
		}
		t.dispatch(frame)
	}
	t.input.Pop(consumed)
}

func (t *HostTransport) dispatch(frame Frame) {
	if len(frame.Payload) == 0 {
		for {
			select {
			case t.ackChan <- frame.Sequence:
				return
			default:
			}
			// keep only the latest ACK
			select {
			case <-t.ackChan:
			default:
			}
		}
	}

	payload := make([]byte, len(frame.Payload))
	copy(payload, frame.Payload)
	msg := &Message{Sequence: frame.Sequence, Payload: payload}

	select {
	case t.responseChan <- msg:
	default:
		// drop the oldest response
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// CurrentSequence returns the sequence of the next command
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(t.currentSeq.Load())
}
