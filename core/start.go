package core

// Start brings up the low-frequency clock if needed, resets the counter and
// all scheduling state, and enables the overflow interrupt. Alarms armed
// before a restart are dropped; callers must not reuse their handles.
func (u *Uptime) Start() {
	clk := u.hw.Clock
	if !clk.Running() {
		clk.Start()
		for !clk.Started() {
		}
	}

	c := u.hw.Counter
	c.Stop()

	state := disableInterrupts()
	u.overflows.Store(0)
	for i := range u.alarms {
		u.alarms[i] = nil
	}
	restoreInterrupts(state)

	c.Clear()
	c.SetPrescaler(u.cfg.Prescaler)
	c.ClearTickEvent()
	c.ClearOverflowEvent()
	for ch := 0; ch < u.channels; ch++ {
		c.ClearCompareEvent(ch)
	}
	c.DisableEventRouting()
	c.DisableAllInterrupts()
	c.EnableOverflowInterrupt()

	u.hw.IRQ.ClearPending()
	u.hw.IRQ.Enable()

	c.Start()
	RecordEvent(EvtStart, 0, 0, u.TickRate())
	DebugPrintln("[UPTIME] started, " + utoa(uint32(u.channels)) + " channels at " + utoa(u.TickRate()) + " Hz")
}
