package core

// Dispatch is the counter interrupt handler body. It counts a latched
// overflow, then services compare channels in ascending order: periodic
// alarms are re-armed by adding their interval to the compare target,
// one-shot alarms are cleared before their callback runs. Each channel gets
// at most one callback per call.
//
// The event flag is cleared before the slot is read, so a ClearAlarm racing
// this handler may report pending=false even though the old alarm fired.
func (u *Uptime) Dispatch() {
	c := u.hw.Counter

	if c.OverflowEvent() {
		c.ClearOverflowEvent()
		n := u.overflows.Add(1)
		RecordEvent(EvtOverflow, 0, 0, n)
	}

	for ch := 0; ch < u.channels; ch++ {
		if !c.CompareEvent(ch) {
			continue
		}
		c.ClearCompareEvent(ch)

		a := u.alarms[ch]
		if a == nil {
			continue
		}

		if a.Interval != 0 {
			next := c.Compare(ch) + a.Interval
			c.SetCompare(ch, next)
			RecordEvent(EvtAlarmRearm, uint8(ch), next, a.Interval)
		} else {
			u.clear(ch)
		}

		RecordEvent(EvtAlarmFire, uint8(ch), c.Counter(), a.Interval)
		if a.Callback != nil {
			a.Callback(ch, a)
		}
	}
}
