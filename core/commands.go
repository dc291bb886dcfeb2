package core

import "rtcuptime/protocol"

const (
	firedRingSize = 16

	// identify chunks and debug messages stay well inside one frame
	identifyChunkMax = 40
	debugMessageMax  = 48
)

type firedReport struct {
	channel uint8
	clock   uint32
}

var (
	// Alarms armed by the host. Preallocated so the interrupt path never
	// allocates.
	hostAlarms [MaxChannels]Alarm

	// Fired reports written by the alarm callback, drained by AlarmReportTask
	firedRing    [firedRingSize]firedReport
	firedHead    uint8
	firedTail    uint8
	firedDropped uint32

	// Event ring copy served by get_event, taken at index 0
	eventSnapshot []AlarmEvent

	globalTransport *protocol.Transport
)

// SetGlobalTransport sets the transport used to send responses
func SetGlobalTransport(t *protocol.Transport) {
	globalTransport = t
}

// SendResponse sends a response message using the global transport
func SendResponse(id uint16, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	if err := globalTransport.SendCommand(id, args); err != nil {
		DebugPrintln("[UPTIME] response " + utoa(uint32(id)) + " dropped: " + err.Error())
	}
}

// HandleCommand is the transport handler that dispatches to the registry
func HandleCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// InitUptimeCommands registers the uptime commands and responses
func InitUptimeCommands() {
	r := globalRegistry
	r.Register(protocol.CmdGetConfig, "get_config", "", handleGetConfig)
	r.Register(protocol.CmdGetUptime, "get_uptime", "", handleGetUptime)
	r.Register(protocol.CmdGetOverflows, "get_overflows", "", handleGetOverflows)
	r.Register(protocol.CmdAlarmSet, "alarm_set", "channel=%c clock=%u interval=%u", handleAlarmSet)
	r.Register(protocol.CmdAlarmClear, "alarm_clear", "channel=%c", handleAlarmClear)
	r.Register(protocol.CmdGetEvent, "get_event", "index=%c", handleGetEvent)
	r.Register(protocol.CmdIdentify, "identify", "offset=%u count=%c", handleIdentify)

	r.Register(protocol.RspConfig, "config", "clock_freq=%u channels=%c width=%c", nil)
	r.Register(protocol.RspUptime, "uptime", "high=%u clock=%u", nil)
	r.Register(protocol.RspOverflows, "overflows", "count=%u", nil)
	r.Register(protocol.RspAlarmStatus, "alarm_status", "channel=%c status=%c", nil)
	r.Register(protocol.RspAlarmCleared, "alarm_cleared", "channel=%c found=%c pending=%c", nil)
	r.Register(protocol.RspAlarmFired, "alarm_fired", "channel=%c clock=%u", nil)
	r.Register(protocol.RspIdentify, "identify_response", "offset=%u data=%.*s", nil)
	r.Register(protocol.RspEvent, "event", "index=%c count=%c type=%c channel=%c clock=%u value=%u", nil)
	r.Register(protocol.RspDebug, "debug", "msg=%.*s", nil)

	globalDictionary.Invalidate()
}

// registerUptimeConstants publishes the peripheral parameters in the
// dictionary. Deferred to the first identify so hardware can be installed
// after the commands.
func registerUptimeConstants() {
	u := MustUptime()
	RegisterConstant("CLOCK_FREQ", utoa(u.TickRate()))
	RegisterConstant("RTC_CHANNELS", utoa(uint32(u.Channels())))
	RegisterConstant("RTC_WIDTH", utoa(uint32(u.hw.Counter.Width())))
	RegisterConstant("ALARM_REPORT_QUEUE", utoa(firedRingSize-1))
}

func handleGetConfig(data *[]byte) error {
	u := MustUptime()
	SendResponse(protocol.RspConfig, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, u.TickRate())
		protocol.EncodeVLQUint(output, uint32(u.Channels()))
		protocol.EncodeVLQUint(output, uint32(u.hw.Counter.Width()))
	})
	return nil
}

func handleGetUptime(data *[]byte) error {
	uptime := GetUptime()
	SendResponse(protocol.RspUptime, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(uptime>>32))
		protocol.EncodeVLQUint(output, uint32(uptime))
	})
	return nil
}

func handleGetOverflows(data *[]byte) error {
	count := Overflows()
	SendResponse(protocol.RspOverflows, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, count)
	})
	return nil
}

// handleAlarmSet arms a host alarm that reports each firing
// Format: alarm_set channel=%c clock=%u interval=%u
func handleAlarmSet(data *[]byte) error {
	var channel, clock, interval uint32
	if err := protocol.DecodeVLQUints(data, &channel, &clock, &interval); err != nil {
		return err
	}

	status := uint32(protocol.AlarmStatusOK)
	u := MustUptime()
	switch {
	case channel >= MaxChannels:
		status = protocol.AlarmStatusInvalidChannel
	case u.Alarm(int(channel)) != nil:
		status = protocol.AlarmStatusBusy
	default:
		hostAlarms[channel] = Alarm{Interval: interval, Callback: reportAlarmFired}
		switch u.SetAlarm(int(channel), clock, &hostAlarms[channel]) {
		case nil:
		case ErrChannelBusy:
			status = protocol.AlarmStatusBusy
		default:
			status = protocol.AlarmStatusInvalidChannel
		}
	}

	SendResponse(protocol.RspAlarmStatus, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, channel)
		protocol.EncodeVLQUint(output, status)
	})
	return nil
}

// handleAlarmClear disarms a channel
// Format: alarm_clear channel=%c
func handleAlarmClear(data *[]byte) error {
	channel, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	var found, pending bool
	if channel < MaxChannels {
		var a *Alarm
		a, pending = ClearAlarm(int(channel))
		found = a != nil
	}

	SendResponse(protocol.RspAlarmCleared, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, channel)
		protocol.EncodeVLQUint(output, boolToU32(found))
		protocol.EncodeVLQUint(output, boolToU32(pending))
	})
	return nil
}

// handleGetEvent returns one entry of the event ring, oldest first.
// Index 0 snapshots the ring so later indexes read a consistent view; past
// the end the entry has type 0.
// Format: get_event index=%c
func handleGetEvent(data *[]byte) error {
	index, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if index == 0 {
		eventSnapshot = Events()
	}

	var evt AlarmEvent
	if index < uint32(len(eventSnapshot)) {
		evt = eventSnapshot[index]
	}
	count := uint32(len(eventSnapshot))
	SendResponse(protocol.RspEvent, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, index)
		protocol.EncodeVLQUint(output, count)
		protocol.EncodeVLQUint(output, uint32(evt.EventType))
		protocol.EncodeVLQUint(output, uint32(evt.Channel))
		protocol.EncodeVLQUint(output, evt.Clock)
		protocol.EncodeVLQUint(output, evt.Value)
	})
	return nil
}

// SendDebugMessage is a DebugWriter that carries each message as a debug
// response, for targets whose only serial link is the protocol link.
// Messages are truncated to fit one frame.
func SendDebugMessage(msg string) {
	if globalTransport == nil {
		return
	}
	if len(msg) > debugMessageMax {
		msg = msg[:debugMessageMax]
	}
	// not SendResponse: its error path logs through this writer
	_ = globalTransport.SendCommand(protocol.RspDebug, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQBytes(output, []byte(msg))
	})
}

// handleIdentify returns one chunk of the compressed dictionary
// Format: identify offset=%u count=%c
func handleIdentify(data *[]byte) error {
	var offset, count uint32
	if err := protocol.DecodeVLQUints(data, &offset, &count); err != nil {
		return err
	}
	if count > identifyChunkMax {
		count = identifyChunkMax
	}
	if offset == 0 {
		registerUptimeConstants()
	}

	chunk := globalDictionary.Chunk(offset, count)
	SendResponse(protocol.RspIdentify, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

// reportAlarmFired runs in interrupt context
func reportAlarmFired(channel int, a *Alarm) {
	next := (firedHead + 1) % firedRingSize
	if next == firedTail {
		firedDropped++
		return
	}
	firedRing[firedHead] = firedReport{
		channel: uint8(channel),
		clock:   uint32(MustUptime().Now()),
	}
	firedHead = next
}

// AlarmReportTask sends pending alarm_fired responses. Call from the main loop.
func AlarmReportTask() {
	for {
		state := disableInterrupts()
		if firedTail == firedHead {
			restoreInterrupts(state)
			return
		}
		rep := firedRing[firedTail]
		firedTail = (firedTail + 1) % firedRingSize
		restoreInterrupts(state)

		SendResponse(protocol.RspAlarmFired, func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, uint32(rep.channel))
			protocol.EncodeVLQUint(output, rep.clock)
		})
	}
}

// AlarmReportsDropped returns how many fired reports were lost to a full ring
func AlarmReportsDropped() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return firedDropped
}

// ResetAlarmReports discards queued fired reports
func ResetAlarmReports() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	firedHead, firedTail, firedDropped = 0, 0, 0
}
