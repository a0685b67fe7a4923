// SPI (Serial Peripheral Interface) bus support
// Implements a polling master driver over Control/Status/Data registers
package core

import (
	"errors"

	"golang.org/x/exp/constraints"
	"tinygo.org/x/drivers"
)

// Bus errors.
var (
	ErrAlreadyStarted = errors.New("spi: bus already started")
	ErrNotStarted     = errors.New("spi: bus not started")
	ErrTimeout        = errors.New("spi: transfer timeout")
	ErrLengthMismatch = errors.New("spi: tx and rx buffer lengths must match")
)

var _ drivers.SPI = (*Bus)(nil)

// Bus is a polling SPI master bound to one peripheral's registers.
//
// A Bus is not safe for concurrent use. Transfers from an interrupt handler
// while the main context is mid-transfer must be prevented by the caller,
// for instance by wrapping transfers in Critical.
type Bus struct {
	control Register
	status  Register
	data    Register

	layout Layout
	pins   SPIPins
	gpio   GPIODriver

	running bool

	// Maximum status polls per byte, 0 for no limit
	pollLimit uint32

	// Values of the bits Begin sets, as they were before Begin
	savedControl uint8
	savedStatus  uint8
}

// NewBus creates a stopped bus over the given registers.
func NewBus(control, status, data Register, cfg BusConfig) *Bus {
	return &Bus{
		control: control,
		status:  status,
		data:    data,
		layout:  cfg.Layout,
		pins:    cfg.Pins,
		gpio:    cfg.GPIO,
	}
}

// Running reports whether Begin has been called without a matching End.
func (b *Bus) Running() bool { return b.running }

// SetPollLimit bounds the busy-wait of every byte transfer to n status polls.
// A transfer that does not complete within the limit fails with ErrTimeout.
// The default of 0 polls forever, so a peripheral that never answers hangs
// the caller.
func (b *Bus) SetPollLimit(n uint32) { b.pollLimit = n }

// Begin configures the SPI pins and enables the peripheral in master mode
// at double clock speed.
func (b *Bus) Begin() error {
	if b.running {
		RecordEvent(EvtRejected, opBegin, 0)
		return ErrAlreadyStarted
	}
	if b.gpio != nil {
		if err := b.configurePins(); err != nil {
			return err
		}
	}

	ctl := b.control.Get()
	st := b.status.Get()
	b.savedControl = ctl & b.layout.controlBits()
	b.savedStatus = st & b.layout.DoubleSpeed

	b.control.Set(ctl | b.layout.controlBits())
	b.status.Set(st | b.layout.DoubleSpeed)
	b.running = true

	RecordEvent(EvtBegin, 0, b.control.Get())
	DebugPrintln("spi: begin")
	return nil
}

// End disables the peripheral, restoring the enable, master and double-speed
// bits to their state before Begin, and reverts the SPI pins to inputs.
func (b *Bus) End() error {
	if !b.running {
		RecordEvent(EvtRejected, opEnd, 0)
		return ErrNotStarted
	}

	mask := b.layout.controlBits()
	b.control.Set(b.control.Get()&^mask | b.savedControl)
	b.status.Set(b.status.Get()&^b.layout.DoubleSpeed | b.savedStatus)
	b.running = false

	RecordEvent(EvtEnd, 0, b.control.Get())
	DebugPrintln("spi: end")

	if b.gpio != nil {
		return b.releasePins()
	}
	return nil
}

// SetClockDivider replaces the clock rate bits of the control register.
// Only the low two bits of d are used.
func (b *Bus) SetClockDivider(d uint8) error {
	if !b.running {
		RecordEvent(EvtRejected, opClockDivider, d)
		return ErrNotStarted
	}
	b.control.Set(b.control.Get()&^ClockRateMask | d&ClockRateMask)
	RecordEvent(EvtClockDivider, d, b.control.Get())
	return nil
}

// SetDataMode replaces the clock phase and polarity bits of the control
// register. Only the low two bits of m are used: bit 0 is phase, bit 1 is
// polarity.
func (b *Bus) SetDataMode(m uint8) error {
	if !b.running {
		RecordEvent(EvtRejected, opDataMode, m)
		return ErrNotStarted
	}
	b.control.Set(b.control.Get()&^dataModeMask | (m&0b11)<<dataModeShift)
	RecordEvent(EvtDataMode, m, b.control.Get())
	return nil
}

// Transfer writes c out on the bus and returns the byte clocked in at the
// same time. It spins on the complete flag until the peripheral finishes.
func (b *Bus) Transfer(c byte) (byte, error) {
	if !b.running {
		return 0, ErrNotStarted
	}
	b.data.Set(c)
	spinHint()

	done := b.layout.Complete
	if b.pollLimit == 0 {
		for b.status.Get()&done == 0 {
		}
	} else {
		remaining := b.pollLimit
		for b.status.Get()&done == 0 {
			remaining--
			if remaining == 0 {
				RecordEvent(EvtTimeout, c, b.control.Get())
				return 0, ErrTimeout
			}
		}
	}
	return b.data.Get(), nil
}

// TransferWord exchanges a 16-bit value, most significant byte first.
func (b *Bus) TransferWord(w uint16) (uint16, error) {
	return exchange(b, w, wordOrder[:])
}

// TransferDWord exchanges a 32-bit value in the legacy double-word order:
// bits 0-7, 8-15, 16-23, then 24-31.
func (b *Bus) TransferDWord(d uint32) (uint32, error) {
	return exchange(b, d, dwordOrder[:])
}

// Tx transmits w and receives into r at the same time. The buffers must be
// the same length unless one of them is nil: a nil w sends zeros and a nil r
// discards what is received.
func (b *Bus) Tx(w, r []byte) error {
	if w != nil && r != nil && len(w) != len(r) {
		return ErrLengthMismatch
	}
	if !b.running {
		return ErrNotStarted
	}
	n := len(w)
	if w == nil {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in, err := b.Transfer(out)
		if err != nil {
			return err
		}
		if r != nil {
			r[i] = in
		}
	}
	return nil
}

// exchange runs one Transfer per byte of v in the given wire order and
// places each received byte at the position its sent byte came from.
func exchange[T constraints.Unsigned](b *Bus, v T, order []uint8) (T, error) {
	var rx T
	for _, shift := range order {
		in, err := b.Transfer(byte(v >> shift))
		if err != nil {
			return 0, err
		}
		rx |= T(in) << shift
	}
	return rx, nil
}

// configurePins sets select, data out and clock as outputs and data in as
// input, in that order.
func (b *Bus) configurePins() error {
	if err := b.gpio.ConfigureOutput(b.pins.Select); err != nil {
		return err
	}
	if err := b.gpio.ConfigureOutput(b.pins.SDO); err != nil {
		return err
	}
	if err := b.gpio.ConfigureInput(b.pins.SDI); err != nil {
		return err
	}
	return b.gpio.ConfigureOutput(b.pins.Clock)
}

// releasePins reverts all four lines to inputs
func (b *Bus) releasePins() error {
	for _, pin := range [4]GPIOPin{b.pins.Select, b.pins.SDO, b.pins.SDI, b.pins.Clock} {
		if err := b.gpio.ConfigureInput(pin); err != nil {
			return err
		}
	}
	return nil
}
