package sim

import "spibus/core"

// PinCall is one recorded GPIO direction change
type PinCall struct {
	Pin    core.GPIOPin
	Output bool
}

// Pins is a core.GPIODriver that records calls
type Pins struct {
	Calls []PinCall

	// Err, when set, is returned by every call after it is recorded
	Err error
}

func (p *Pins) ConfigureOutput(pin core.GPIOPin) error {
	p.Calls = append(p.Calls, PinCall{Pin: pin, Output: true})
	return p.Err
}

func (p *Pins) ConfigureInput(pin core.GPIOPin) error {
	p.Calls = append(p.Calls, PinCall{Pin: pin, Output: false})
	return p.Err
}

// Reset forgets recorded calls
func (p *Pins) Reset() {
	p.Calls = p.Calls[:0]
}
