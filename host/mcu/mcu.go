// Package mcu is the host-side client for the uptime firmware.
package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"rtcuptime/host/serial"
	"rtcuptime/protocol"
)

var (
	ErrNotConnected   = errors.New("not connected to MCU")
	ErrInvalidChannel = errors.New("invalid alarm channel")
	ErrChannelBusy    = errors.New("alarm channel already armed")
)

// Config mirrors the firmware get_config response
type Config struct {
	ClockFreq uint32
	Channels  uint32
	Width     uint32
}

// AlarmFired is an asynchronous alarm_fired report
type AlarmFired struct {
	Channel uint32
	Clock   uint32
}

// Event is one entry of the firmware event ring
type Event struct {
	Type    uint32
	Channel uint32
	Clock   uint32
	Value   uint32
}

var eventNames = map[uint32]string{
	1: "START",
	2: "ALARM_SET",
	3: "ALARM_CLEAR",
	4: "ALARM_REARM",
	5: "ALARM_FIRE",
	6: "OVERFLOW",
}

// Name returns the event type as printed by the firmware tools
func (e Event) Name() string {
	if n, ok := eventNames[e.Type]; ok {
		return n
	}
	return "UNKNOWN"
}

// MCU is a connection to the uptime firmware
type MCU struct {
	transport *protocol.HostTransport

	// one request/response exchange at a time
	mu sync.Mutex

	reports chan AlarmFired
	debug   chan string
	replies chan *protocol.Message
	done    chan struct{}
}

// Connect opens device and starts the client
func Connect(device string) (*MCU, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a serial port with a custom config
func ConnectWithConfig(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	return New(port), nil
}

// New runs a client over an already open link
func New(port io.ReadWriteCloser) *MCU {
	m := &MCU{
		transport: protocol.NewHostTransport(port),
		reports:   make(chan AlarmFired, 64),
		debug:     make(chan string, 16),
		replies:   make(chan *protocol.Message, 8),
		done:      make(chan struct{}),
	}
	go m.route()
	return m
}

// Close closes the connection
func (m *MCU) Close() error {
	err := m.transport.Close()
	<-m.done
	return err
}

// Reports returns the stream of alarm_fired reports
func (m *MCU) Reports() <-chan AlarmFired {
	return m.reports
}

// Debug returns the stream of firmware debug messages
func (m *MCU) Debug() <-chan string {
	return m.debug
}

// route splits asynchronous reports from command replies
func (m *MCU) route() {
	defer close(m.done)
	for {
		msg, err := m.transport.Receive(context.Background())
		if err != nil {
			return
		}
		id, args, err := msg.Command()
		if err != nil {
			continue
		}
		switch id {
		case protocol.RspAlarmFired:
			var fired AlarmFired
			if err := protocol.DecodeVLQUints(&args, &fired.Channel, &fired.Clock); err != nil {
				continue
			}
			select {
			case m.reports <- fired:
			default:
			}
		case protocol.RspDebug:
			text, err := protocol.DecodeVLQBytes(&args)
			if err != nil {
				continue
			}
			select {
			case m.debug <- string(text):
			default:
			}
		default:
			select {
			case m.replies <- msg:
			default:
			}
		}
	}
}

// call sends a command and decodes the uint32 fields of the response want
func (m *MCU) call(ctx context.Context, cmd, want uint16, args []uint32, out ...*uint32) error {
	return m.exchange(ctx, cmd, want, args, func(data []byte) error {
		return protocol.DecodeVLQUints(&data, out...)
	})
}

// exchange sends a command and hands the arguments of the response with ID
// want to decode
func (m *MCU) exchange(ctx context.Context, cmd, want uint16, args []uint32, decode func(data []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// discard replies nobody waited for
	for len(m.replies) > 0 {
		<-m.replies
	}

	seq, err := m.transport.Send(ctx, cmd, func(output protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQUint(output, a)
		}
	})
	if err != nil {
		return err
	}

	for {
		select {
		case msg := <-m.replies:
			// a late reply to an earlier, timed-out command carries an
			// older sequence
			if msg.Sequence != seq {
				continue
			}
			id, data, err := msg.Command()
			if err != nil || id != want {
				continue
			}
			if err := decode(data); err != nil {
				return fmt.Errorf("decode response %d: %w", want, err)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("waiting for response %d: %w", want, ctx.Err())
		case <-m.done:
			return ErrNotConnected
		}
	}
}

// Config queries the firmware tick rate and channel layout
func (m *MCU) Config(ctx context.Context) (Config, error) {
	var c Config
	err := m.call(ctx, protocol.CmdGetConfig, protocol.RspConfig, nil, &c.ClockFreq, &c.Channels, &c.Width)
	return c, err
}

// Uptime returns the extended 64-bit tick count
func (m *MCU) Uptime(ctx context.Context) (uint64, error) {
	var high, low uint32
	if err := m.call(ctx, protocol.CmdGetUptime, protocol.RspUptime, nil, &high, &low); err != nil {
		return 0, err
	}
	return uint64(high)<<32 | uint64(low), nil
}

// Overflows returns the number of counter overflows since start
func (m *MCU) Overflows(ctx context.Context) (uint32, error) {
	var n uint32
	err := m.call(ctx, protocol.CmdGetOverflows, protocol.RspOverflows, nil, &n)
	return n, err
}

// SetAlarm arms channel at tick when; interval 0 is one-shot
func (m *MCU) SetAlarm(ctx context.Context, channel, when, interval uint32) error {
	var ch, status uint32
	err := m.call(ctx, protocol.CmdAlarmSet, protocol.RspAlarmStatus,
		[]uint32{channel, when, interval}, &ch, &status)
	if err != nil {
		return err
	}
	switch status {
	case protocol.AlarmStatusOK:
		return nil
	case protocol.AlarmStatusBusy:
		return fmt.Errorf("channel %d: %w", channel, ErrChannelBusy)
	default:
		return fmt.Errorf("channel %d: %w", channel, ErrInvalidChannel)
	}
}

// ClearAlarm disarms channel. found reports whether an alarm was armed,
// pending whether a match was latched but not yet reported.
func (m *MCU) ClearAlarm(ctx context.Context, channel uint32) (found, pending bool, err error) {
	var ch, f, p uint32
	err = m.call(ctx, protocol.CmdAlarmClear, protocol.RspAlarmCleared, []uint32{channel}, &ch, &f, &p)
	return f != 0, p != 0, err
}

// Events reads the firmware event ring, oldest first
func (m *MCU) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	for index := uint32(0); ; index++ {
		var idx, count uint32
		var e Event
		err := m.call(ctx, protocol.CmdGetEvent, protocol.RspEvent, []uint32{index},
			&idx, &count, &e.Type, &e.Channel, &e.Clock, &e.Value)
		if err != nil {
			return nil, err
		}
		if index >= count {
			return events, nil
		}
		events = append(events, e)
	}
}
