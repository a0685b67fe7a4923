package serial

import (
	"io"
)

// Port is a serial link to a device running the register monitor.
// Native ports use github.com/tarm/serial; tests use in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ports ignore it
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the UART rate of the atmega328p monitor target
const DefaultBaud = 57600

// DefaultConfig returns the configuration used by the monitor targets
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
