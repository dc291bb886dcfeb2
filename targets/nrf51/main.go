//go:build nrf51

package main

import (
	"machine"
	"time"

	"rtcuptime/core"
	"rtcuptime/protocol"
	"rtcuptime/targets/nrfrtc"
)

var (
	uart = machine.UART0

	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport
)

func main() {
	uart.Configure(machine.UARTConfig{BaudRate: 115200})

	nrfrtc.InitUptime(0)
	core.InitUptimeCommands()
	core.RegisterConstant("MCU", "nrf51")

	inputBuffer = protocol.NewFifoBuffer(128)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.HandleCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		core.ResetAlarmReports()
	})
	core.SetGlobalTransport(transport)
	// UART0 is the only serial link, so debug text travels as responses
	core.SetDebugWriter(core.SendDebugMessage)

	for {
		readUART()

		if inputBuffer.Available() > 0 {
			inputBuffer.Pop(transport.Receive(inputBuffer.Data()))
		}
		if inputBuffer.Free() == 0 {
			// a full buffer without a complete frame is garbage
			core.DebugPrintln("[UART] input overrun")
			inputBuffer.Reset()
		}

		core.AlarmReportTask()

		if out := outputBuffer.Result(); len(out) > 0 {
			uart.Write(out)
			outputBuffer.Reset()
		}

		time.Sleep(100 * time.Microsecond)
	}
}

func readUART() {
	var b [1]byte
	for uart.Buffered() > 0 && inputBuffer.Free() > 0 {
		c, err := uart.ReadByte()
		if err != nil {
			return
		}
		b[0] = c
		inputBuffer.Write(b[:])
	}
}
