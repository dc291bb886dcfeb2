// Package protocol implements the framed serial protocol spoken between the
// uptime firmware and the host tool. Framing and integer encoding follow
// Klipper: len, seq, payload, crc16, 0x7E.
package protocol

// Version represents the firmware protocol version
const Version = "0.1.0"

// Command and response IDs. Commands flow host to MCU, responses MCU to host.
const (
	CmdGetConfig uint16 = iota + 1
	CmdGetUptime
	CmdGetOverflows
	CmdAlarmSet
	CmdAlarmClear
	CmdGetEvent
	CmdIdentify

	RspConfig
	RspUptime
	RspOverflows
	RspAlarmStatus
	RspAlarmCleared
	RspAlarmFired
	RspIdentify
	RspEvent
	RspDebug
)

// Alarm status codes carried by RspAlarmStatus
const (
	AlarmStatusOK             = 0
	AlarmStatusInvalidChannel = 1
	AlarmStatusBusy           = 2
)
