package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// AlarmEvent captures an uptime event for post-mortem analysis
type AlarmEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // Compare channel
	Clock     uint32 // Compare target or counter value
	Value     uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStart      = 1 // Start-up sequence ran (value = tick rate)
	EvtAlarmSet   = 2 // Alarm armed (clock = target, value = interval)
	EvtAlarmClear = 3 // Alarm removed (value = pending)
	EvtAlarmRearm = 4 // Periodic alarm re-armed (clock = next target)
	EvtAlarmFire  = 5 // Callback about to run (clock = counter)
	EvtOverflow   = 6 // Overflow counted (value = new count)
)

const (
	EventRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the platform debug print function
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln produces output
	debugEnabled bool

	// Event ring buffer, written from interrupt context
	eventRing     [EventRingSize]AlarmEvent
	eventRingHead uint8
	eventsEnabled = true
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// SetEventsEnabled enables or disables event capture
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer. Never allocates.
func RecordEvent(eventType, channel uint8, clock, value uint32) {
	if !eventsEnabled {
		return
	}
	state := disableInterrupts()
	idx := eventRingHead
	eventRing[idx] = AlarmEvent{
		EventType: eventType,
		Channel:   channel,
		Clock:     clock,
		Value:     value,
	}
	eventRingHead = (idx + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the captured events from oldest to newest
func Events() []AlarmEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]AlarmEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for i := range eventRing {
		eventRing[i] = AlarmEvent{}
	}
	eventRingHead = 0
}
