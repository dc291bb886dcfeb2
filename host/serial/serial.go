// Package serial opens the UART link to the uptime firmware.
package serial

import (
	"io"
	"time"
)

// Port is a serial connection to the MCU
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; the nRF51 firmware runs its UART at 115200
	Baud int

	// ReadTimeout bounds each Read so the reader can observe shutdown
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration matching the firmware defaults
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
