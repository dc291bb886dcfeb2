package core

// MaxChannels bounds the number of compare channels any supported counter
// peripheral exposes. nRF51 RTC0 has 3, RTC1 has 4.
const MaxChannels = 4

// MaxPrescaler is the largest tick divider the counter accepts. The nRF5x
// PRESCALER register is 12 bits wide.
const MaxPrescaler = 0xFFF

// CounterDriver is the abstract RTC counter peripheral the uptime core drives.
// Platform-specific implementations map these onto hardware registers.
// Channel arguments are always in [0, ChannelCount()).
type CounterDriver interface {
	// ChannelCount returns the number of compare channels
	ChannelCount() int

	// Width returns the counter width in bits (24 on nRF5x)
	Width() uint

	// Start, Stop and Clear trigger the counter tasks
	Start()
	Stop()
	Clear()

	// SetPrescaler sets the tick divider, at most MaxPrescaler; only valid
	// while stopped
	SetPrescaler(p uint32)

	// Counter reads the raw counter value
	Counter() uint32

	// OverflowEvent reports whether the overflow event is latched
	OverflowEvent() bool
	ClearOverflowEvent()
	ClearTickEvent()

	// CompareEvent reports whether the compare event of a channel is latched
	CompareEvent(ch int) bool
	ClearCompareEvent(ch int)

	// Compare and SetCompare access the channel compare target
	Compare(ch int) uint32
	SetCompare(ch int, ticks uint32)

	EnableCompareInterrupt(ch int)
	DisableCompareInterrupt(ch int)
	EnableOverflowInterrupt()

	// DisableAllInterrupts clears every interrupt enable bit
	DisableAllInterrupts()

	// DisableEventRouting stops forwarding events to other peripherals
	DisableEventRouting()
}

// ClockSource is the low-frequency clock feeding the counter.
type ClockSource interface {
	// Running reports whether the clock is already running
	Running() bool

	// Start clears the started event and triggers the clock start task.
	// The oscillator choice belongs to the implementation.
	Start()

	// Started reports whether the started event has been raised
	Started() bool
}

// InterruptLine is the interrupt controller line raised by the counter.
type InterruptLine interface {
	ClearPending()
	Enable()
}

// Hardware groups the collaborators an Uptime instance needs.
type Hardware struct {
	Counter CounterDriver
	Clock   ClockSource
	IRQ     InterruptLine
}

func (hw Hardware) valid() bool {
	return hw.Counter != nil && hw.Clock != nil && hw.IRQ != nil
}
