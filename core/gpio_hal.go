package core

import "errors"

// GPIOPin identifies a pin within the port driven by a GPIODriver
type GPIOPin uint8

var ErrInvalidPin = errors.New("spi: invalid pin")

// GPIODriver is the pin direction capability the bus relies on.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInput configures a pin as a digital input
	ConfigureInput(pin GPIOPin) error
}

// PortGPIO drives pin directions through an 8-bit data direction register
// where bit n set means pin n is an output, as on AVR's DDRx registers.
type PortGPIO struct {
	DDR Register
}

// ConfigureOutput sets the pin's direction bit.
func (p PortGPIO) ConfigureOutput(pin GPIOPin) error {
	if pin > 7 {
		return ErrInvalidPin
	}
	p.DDR.Set(p.DDR.Get() | 1<<pin)
	return nil
}

// ConfigureInput clears the pin's direction bit.
func (p PortGPIO) ConfigureInput(pin GPIOPin) error {
	if pin > 7 {
		return ErrInvalidPin
	}
	p.DDR.Set(p.DDR.Get() &^ (1 << pin))
	return nil
}
