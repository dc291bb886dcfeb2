package core

import "sync/atomic"

// AlarmCallback is invoked from interrupt context when an alarm fires.
// It must not block or allocate. It may call SetAlarm or ClearAlarm.
type AlarmCallback func(channel int, a *Alarm)

// Alarm is a caller-owned request to be notified when the counter reaches a
// compare target. The Uptime holds a non-owning reference while it is armed.
type Alarm struct {
	// Interval is zero for a one-shot alarm. Otherwise the compare target is
	// advanced by Interval ticks each time the alarm fires.
	Interval uint32
	Callback AlarmCallback
}

// Config holds start-up options for an Uptime
type Config struct {
	// Prescaler divides the low-frequency clock: tick rate = LFClockFreq/(Prescaler+1).
	// Values above MaxPrescaler are clamped.
	Prescaler uint32
}

// DefaultConfig runs the counter at the full 32768 Hz
func DefaultConfig() Config {
	return Config{}
}

// Uptime is the scheduling table for one counter peripheral: the overflow
// count and the alarm occupying each compare channel.
type Uptime struct {
	hw        Hardware
	cfg       Config
	channels  int
	overflows atomic.Uint32
	alarms    [MaxChannels]*Alarm
}

// NewUptime binds an Uptime to its hardware. Call Start before arming alarms.
func NewUptime(hw Hardware, cfg Config) *Uptime {
	if !hw.valid() {
		panic("uptime hardware not configured")
	}
	n := hw.Counter.ChannelCount()
	if n > MaxChannels {
		n = MaxChannels
	}
	if cfg.Prescaler > MaxPrescaler {
		DebugPrintln("[UPTIME] prescaler " + utoa(cfg.Prescaler) + " clamped to " + utoa(MaxPrescaler))
		cfg.Prescaler = MaxPrescaler
	}
	return &Uptime{hw: hw, cfg: cfg, channels: n}
}

// Channels returns the number of compare channels, including reserved channel 0
func (u *Uptime) Channels() int {
	return u.channels
}

// Overflows returns the number of counter overflows since Start
func (u *Uptime) Overflows() uint32 {
	return u.overflows.Load()
}

// TickRate returns the counter frequency in Hz
func (u *Uptime) TickRate() uint32 {
	return LFClockFreq / (u.cfg.Prescaler + 1)
}

// Now returns the extended 64-bit tick count: overflows above the raw counter.
// An overflow that is latched but not yet dispatched is accounted for.
func (u *Uptime) Now() uint64 {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	c := u.hw.Counter
	overflows := uint64(u.overflows.Load())
	ticks := c.Counter()
	if c.OverflowEvent() {
		overflows++
		ticks = c.Counter()
	}
	return overflows<<c.Width() | uint64(ticks)
}

// Alarm returns the alarm armed on channel, or nil
func (u *Uptime) Alarm(channel int) *Alarm {
	if channel < 0 || channel >= u.channels {
		return nil
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return u.alarms[channel]
}

// Global singleton used by targets and the command layer.
var defaultUptime *Uptime

// SetUptimeHardware is called by target-specific code to register its counter.
func SetUptimeHardware(hw Hardware, cfg Config) {
	defaultUptime = NewUptime(hw, cfg)
}

// MustUptime returns the configured Uptime or panics if missing.
func MustUptime() *Uptime {
	if defaultUptime == nil {
		panic("uptime hardware not configured")
	}
	return defaultUptime
}

// Start runs the start-up sequence on the default Uptime
func Start() {
	MustUptime().Start()
}

// SetAlarm arms an alarm on the default Uptime
func SetAlarm(channel int, when uint32, a *Alarm) error {
	return MustUptime().SetAlarm(channel, when, a)
}

// ClearAlarm disarms a channel of the default Uptime
func ClearAlarm(channel int) (*Alarm, bool) {
	return MustUptime().ClearAlarm(channel)
}

// Dispatch services the default Uptime; targets call it from the counter IRQ
func Dispatch() {
	MustUptime().Dispatch()
}

// Overflows returns the overflow count of the default Uptime
func Overflows() uint32 {
	return MustUptime().Overflows()
}

// GetUptime returns the extended tick count of the default Uptime
func GetUptime() uint64 {
	return MustUptime().Now()
}
