package core

// Register is one 8-bit hardware register.
// TinyGo's *volatile.Register8 satisfies it, so memory-mapped registers such
// as avr.SPCR can be handed to NewBus directly. The bus only borrows the
// registers it is given; their lifetime is the hardware's.
type Register interface {
	// Get reads the register.
	Get() uint8

	// Set writes the register.
	Set(value uint8)
}

// SPIPins names the four logical lines of an SPI bus.
// Pin numbers are interpreted by the GPIODriver passed alongside them.
type SPIPins struct {
	Select GPIOPin // Slave select
	SDO    GPIOPin // Serial data out (MOSI)
	SDI    GPIOPin // Serial data in (MISO)
	Clock  GPIOPin // Serial clock
}

// BusConfig holds everything besides the three registers a Bus needs
type BusConfig struct {
	// Layout places the enable, master, complete and double-speed bits.
	Layout Layout

	// Pins are configured as outputs (SDI as input) by Begin and reverted
	// to inputs by End.
	Pins SPIPins

	// GPIO performs pin direction changes. May be nil when the peripheral
	// owns its pins, as PIO state machines do.
	GPIO GPIODriver
}
