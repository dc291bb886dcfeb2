// Package sim is a software model of an nRF5x-style RTC peripheral: a
// free-running counter with compare channels, an overflow event, interrupt
// enable bits, a low-frequency clock source and an interrupt line.
//
// Events latch whether or not their interrupt is enabled. The interrupt
// handler runs synchronously from Advance whenever an enabled event is
// latched and the line is enabled.
package sim

// RTC is a simulated counter peripheral
type RTC struct {
	width     uint
	mask      uint32
	running   bool
	counter   uint32
	prescaler uint32

	cc         []uint32
	ccEvent    []bool
	ccInt      []bool
	ovfEvent   bool
	ovfInt     bool
	tickEvent  bool
	evtRouting bool

	irq IRQ
}

// NewRTC creates a stopped RTC with the given channel count and counter width
func NewRTC(channels int, width uint) *RTC {
	return &RTC{
		width:      width,
		mask:       uint32(1)<<width - 1,
		cc:         make([]uint32, channels),
		ccEvent:    make([]bool, channels),
		ccInt:      make([]bool, channels),
		evtRouting: true,
	}
}

// IRQ returns the interrupt line of the RTC
func (r *RTC) IRQ() *IRQ {
	return &r.irq
}

func (r *RTC) ChannelCount() int { return len(r.cc) }
func (r *RTC) Width() uint { return r.width }
func (r *RTC) Start() { r.running = true }
func (r *RTC) Stop() { r.running = false }
func (r *RTC) Clear() { r.counter = 0 }
func (r *RTC) SetPrescaler(p uint32) { r.prescaler = p }
func (r *RTC) Counter() uint32 { return r.counter }
func (r *RTC) OverflowEvent() bool { return r.ovfEvent }
func (r *RTC) ClearOverflowEvent() { r.ovfEvent = false }
func (r *RTC) ClearTickEvent() { r.tickEvent = false }
func (r *RTC) CompareEvent(ch int) bool { return r.ccEvent[ch] }
func (r *RTC) ClearCompareEvent(ch int) { r.ccEvent[ch] = false }
func (r *RTC) Compare(ch int) uint32 { return r.cc[ch] }
func (r *RTC) EnableOverflowInterrupt() { r.ovfInt = true }
func (r *RTC) DisableEventRouting() { r.evtRouting = false }
func (r *RTC) EnableCompareInterrupt(ch int) {
	r.ccInt[ch] = true
}
func (r *RTC) DisableCompareInterrupt(ch int) {
	r.ccInt[ch] = false
}

// SetCompare stores a compare target, truncated to the counter width
func (r *RTC) SetCompare(ch int, ticks uint32) {
	r.cc[ch] = ticks & r.mask
}

// DisableAllInterrupts clears every interrupt enable bit
func (r *RTC) DisableAllInterrupts() {
	r.ovfInt = false
	for i := range r.ccInt {
		r.ccInt[i] = false
	}
}

// Running reports whether the counter is counting
func (r *RTC) Running() bool { return r.running }

// Prescaler returns the programmed prescaler
func (r *RTC) Prescaler() uint32 { return r.prescaler }

// CompareInterruptEnabled reports the interrupt enable bit of a channel
func (r *RTC) CompareInterruptEnabled(ch int) bool { return r.ccInt[ch] }

// OverflowInterruptEnabled reports the overflow interrupt enable bit
func (r *RTC) OverflowInterruptEnabled() bool { return r.ovfInt }

// EventRouting reports whether event forwarding is still enabled
func (r *RTC) EventRouting() bool { return r.evtRouting }

// LatchCompare latches a compare event without advancing the counter, as
// happens when a match lands while software holds interrupts off.
func (r *RTC) LatchCompare(ch int) {
	r.ccEvent[ch] = true
}

// LatchOverflow latches an overflow event without advancing the counter
func (r *RTC) LatchOverflow() {
	r.ovfEvent = true
}

// SetCounter forces the counter value
func (r *RTC) SetCounter(v uint32) {
	r.counter = v & r.mask
}

// Advance runs the counter forward by ticks counter increments, firing the
// interrupt after each increment that latched an enabled event.
func (r *RTC) Advance(ticks uint64) {
	if !r.running {
		return
	}
	for ; ticks > 0; ticks-- {
		r.counter = (r.counter + 1) & r.mask
		r.tickEvent = true
		if r.counter == 0 {
			r.ovfEvent = true
		}
		for ch, target := range r.cc {
			if r.counter == target {
				r.ccEvent[ch] = true
			}
		}
		r.Poll()
	}
}

// AdvanceTo runs the counter forward until it reads target
func (r *RTC) AdvanceTo(target uint32) {
	target &= r.mask
	r.Advance(uint64((target - r.counter) & r.mask))
}

// Poll runs the interrupt handler if an enabled event is latched
func (r *RTC) Poll() {
	if r.pending() {
		r.irq.raise()
	}
}

func (r *RTC) pending() bool {
	if r.ovfEvent && r.ovfInt {
		return true
	}
	for ch := range r.cc {
		if r.ccEvent[ch] && r.ccInt[ch] {
			return true
		}
	}
	return false
}
