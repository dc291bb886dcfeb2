//go:build nrf51 || nrf52

// Package nrfrtc binds the uptime core to RTC0 of nRF51/nRF52 parts.
package nrfrtc

import (
	"device/arm"
	"device/nrf"
	"runtime/interrupt"

	"rtcuptime/core"
)

// The TinyGo runtime keeps RTC1 for its own sleep timer, so uptime uses RTC0.
const rtcChannels = 3

var rtc = nrf.RTC0

// rtcCounter drives RTC0 through its task, event and interrupt registers
type rtcCounter struct{}

func (rtcCounter) ChannelCount() int { return rtcChannels }
func (rtcCounter) Width() uint { return 24 }

func (rtcCounter) Start() { rtc.TASKS_START.Set(1) }
func (rtcCounter) Stop() { rtc.TASKS_STOP.Set(1) }
func (rtcCounter) Clear() { rtc.TASKS_CLEAR.Set(1) }

func (rtcCounter) SetPrescaler(p uint32) { rtc.PRESCALER.Set(p) }
func (rtcCounter) Counter() uint32 { return rtc.COUNTER.Get() }

func (rtcCounter) OverflowEvent() bool { return rtc.EVENTS_OVRFLW.Get() != 0 }
func (rtcCounter) ClearOverflowEvent() { rtc.EVENTS_OVRFLW.Set(0) }
func (rtcCounter) ClearTickEvent() { rtc.EVENTS_TICK.Set(0) }

func (rtcCounter) CompareEvent(ch int) bool { return rtc.EVENTS_COMPARE[ch].Get() != 0 }
func (rtcCounter) ClearCompareEvent(ch int) { rtc.EVENTS_COMPARE[ch].Set(0) }

func (rtcCounter) Compare(ch int) uint32 { return rtc.CC[ch].Get() }
func (rtcCounter) SetCompare(ch int, ticks uint32) { rtc.CC[ch].Set(ticks & 0xFFFFFF) }

func (rtcCounter) EnableCompareInterrupt(ch int) {
	rtc.INTENSET.Set(nrf.RTC_INTENSET_COMPARE0 << uint(ch))
}

func (rtcCounter) DisableCompareInterrupt(ch int) {
	rtc.INTENCLR.Set(nrf.RTC_INTENCLR_COMPARE0 << uint(ch))
}

func (rtcCounter) EnableOverflowInterrupt() { rtc.INTENSET.Set(nrf.RTC_INTENSET_OVRFLW) }
func (rtcCounter) DisableAllInterrupts() { rtc.INTENCLR.Set(0xFFFFFFFF) }
func (rtcCounter) DisableEventRouting() { rtc.EVTENCLR.Set(0xFFFFFFFF) }

// lfClock is the 32.768 kHz low-frequency clock, started from the crystal
type lfClock struct{}

func (lfClock) Running() bool {
	return nrf.CLOCK.LFCLKSTAT.Get()&nrf.CLOCK_LFCLKSTAT_STATE_Msk ==
		nrf.CLOCK_LFCLKSTAT_STATE_Running<<nrf.CLOCK_LFCLKSTAT_STATE_Pos
}

func (lfClock) Start() {
	nrf.CLOCK.EVENTS_LFCLKSTARTED.Set(0)
	nrf.CLOCK.LFCLKSRC.Set(nrf.CLOCK_LFCLKSTAT_SRC_Xtal << nrf.CLOCK_LFCLKSTAT_SRC_Pos)
	nrf.CLOCK.TASKS_LFCLKSTART.Set(1)
}

func (lfClock) Started() bool {
	return nrf.CLOCK.EVENTS_LFCLKSTARTED.Get() != 0
}

// rtcIRQ is the RTC0 line at the NVIC
type rtcIRQ struct {
	intr interrupt.Interrupt
}

func (q *rtcIRQ) ClearPending() {
	arm.NVIC.ICPR[nrf.IRQ_RTC0>>5].Set(1 << (nrf.IRQ_RTC0 & 31))
}

func (q *rtcIRQ) Enable() {
	q.intr.Enable()
}

// InitUptime registers RTC0 with the uptime core and starts it.
// prescaler divides the 32768 Hz clock by prescaler+1.
func InitUptime(prescaler uint32) {
	irq := &rtcIRQ{
		intr: interrupt.New(nrf.IRQ_RTC0, func(interrupt.Interrupt) {
			core.Dispatch()
		}),
	}
	irq.intr.SetPriority(0xc0)

	core.SetUptimeHardware(core.Hardware{
		Counter: rtcCounter{},
		Clock:   lfClock{},
		IRQ:     irq,
	}, core.Config{Prescaler: prescaler})
	core.Start()
}
