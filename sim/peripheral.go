// Package sim provides in-memory stand-ins for SPI peripheral registers and
// GPIO, for tests and for running the bus without hardware.
package sim

import "spibus/core"

// Reg is a plain 8-bit register that counts writes
type Reg struct {
	Value  uint8
	Writes int
}

func (r *Reg) Get() uint8 { return r.Value }

func (r *Reg) Set(v uint8) {
	r.Value = v
	r.Writes++
}

// Peripheral models an SPI peripheral's Control, Status and Data registers
// with AVR semantics: writing Data while enabled starts a transfer, the
// complete flag rises after Latency further status polls, and reading Data
// after completion clears the flag.
type Peripheral struct {
	Layout core.Layout

	// Peer returns the byte clocked in for each byte sent. Nil echoes the
	// sent byte (loopback).
	Peer func(mosi byte) byte

	// Latency is the number of status polls that see the transfer still busy.
	Latency int

	// Stall keeps every transfer busy forever.
	Stall bool

	// MOSI records every byte clocked out, in order.
	MOSI []byte

	// Access counters
	StatusPolls   int
	ControlWrites int
	StatusWrites  int
	DataWrites    int

	control uint8
	status  uint8
	data    uint8
	busy    bool
	pending int

	controlReg controlReg
	statusReg  statusReg
	dataReg    dataReg
}

// New creates an idle peripheral using layout
func New(layout core.Layout) *Peripheral {
	p := &Peripheral{Layout: layout}
	p.controlReg.p = p
	p.statusReg.p = p
	p.dataReg.p = p
	return p
}

// Loopback creates an ATmega328P-layout peripheral that echoes every byte
func Loopback() *Peripheral {
	return New(core.LayoutATmega328P)
}

// Control returns the control register
func (p *Peripheral) Control() core.Register { return &p.controlReg }

// Status returns the status register
func (p *Peripheral) Status() core.Register { return &p.statusReg }

// Data returns the data register
func (p *Peripheral) Data() core.Register { return &p.dataReg }

// Writes returns the total number of register writes
func (p *Peripheral) Writes() int {
	return p.ControlWrites + p.StatusWrites + p.DataWrites
}

// ControlValue returns the control register without counting an access
func (p *Peripheral) ControlValue() uint8 { return p.control }

// StatusValue returns the status register without counting a poll
func (p *Peripheral) StatusValue() uint8 { return p.status }

// Preset loads control and status, as if left by earlier firmware
func (p *Peripheral) Preset(control, status uint8) {
	p.control = control
	p.status = status
}

func (p *Peripheral) startTransfer(b byte) {
	p.MOSI = append(p.MOSI, b)
	rx := b
	if p.Peer != nil {
		rx = p.Peer(b)
	}
	p.data = rx
	p.status &^= p.Layout.Complete
	p.busy = true
	p.pending = p.Latency
}

type controlReg struct{ p *Peripheral }

func (r *controlReg) Get() uint8 { return r.p.control }

func (r *controlReg) Set(v uint8) {
	r.p.control = v
	r.p.ControlWrites++
}

type statusReg struct{ p *Peripheral }

func (r *statusReg) Get() uint8 {
	p := r.p
	p.StatusPolls++
	if p.busy && !p.Stall {
		if p.pending > 0 {
			p.pending--
		} else {
			p.busy = false
			p.status |= p.Layout.Complete
		}
	}
	return p.status
}

// Set writes every bit except the read-only complete flag.
func (r *statusReg) Set(v uint8) {
	p := r.p
	done := p.Layout.Complete
	p.status = p.status&done | v&^done
	p.StatusWrites++
}

type dataReg struct{ p *Peripheral }

func (r *dataReg) Get() uint8 {
	p := r.p
	p.status &^= p.Layout.Complete
	return p.data
}

// Set starts a transfer when the peripheral is enabled; a disabled
// peripheral ignores the byte.
func (r *dataReg) Set(v uint8) {
	p := r.p
	p.DataWrites++
	if p.control&p.Layout.Enable == 0 {
		return
	}
	p.startTransfer(v)
}
