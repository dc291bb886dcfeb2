package core

import "errors"

var (
	ErrInvalidChannel = errors.New("invalid alarm channel")
	ErrChannelBusy    = errors.New("alarm channel already armed")
	ErrNilAlarm       = errors.New("nil alarm")
)

// SetAlarm arms a on channel with compare target when.
// Channel 0 is reserved. On error nothing is modified.
func (u *Uptime) SetAlarm(channel int, when uint32, a *Alarm) error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	switch {
	case channel < 1 || channel >= u.channels:
		return ErrInvalidChannel
	case a == nil:
		return ErrNilAlarm
	case u.alarms[channel] != nil:
		return ErrChannelBusy
	}

	c := u.hw.Counter
	c.ClearCompareEvent(channel)
	c.SetCompare(channel, when)
	c.EnableCompareInterrupt(channel)
	u.alarms[channel] = a

	RecordEvent(EvtAlarmSet, uint8(channel), when, a.Interval)
	return nil
}

// ClearAlarm disarms channel and returns the alarm that occupied it.
// pending reports a compare event latched before the interrupt was disabled;
// its callback will not run. Out-of-range channels return (nil, false).
func (u *Uptime) ClearAlarm(channel int) (a *Alarm, pending bool) {
	if channel < 0 || channel >= u.channels {
		return nil, false
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	return u.clear(channel)
}

// clear must be called with interrupts disabled
func (u *Uptime) clear(channel int) (*Alarm, bool) {
	c := u.hw.Counter
	c.DisableCompareInterrupt(channel)
	pending := c.CompareEvent(channel)
	c.ClearCompareEvent(channel)

	a := u.alarms[channel]
	u.alarms[channel] = nil

	if a != nil {
		RecordEvent(EvtAlarmClear, uint8(channel), c.Compare(channel), boolToU32(pending))
	}
	return a, pending
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
