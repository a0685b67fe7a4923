//go:build rp2040

package main

import (
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"spibus/core"
)

// pioPeripheral presents a PIO SPI state machine as Control/Status/Data
// registers with ATmega328P bit positions, so core.Bus runs unchanged on
// the RP2040. Clock and mode are fixed when the state machine is built;
// the control register only gates transfers through its enable bit.
type pioPeripheral struct {
	spi    *piolib.SPI
	layout core.Layout

	control uint8
	status  uint8
	data    uint8

	controlReg pioControl
	statusReg  pioStatus
	dataReg    pioData
}

func newPIOPeripheral(spi *piolib.SPI) *pioPeripheral {
	p := &pioPeripheral{spi: spi, layout: core.LayoutATmega328P}
	p.controlReg.p = p
	p.statusReg.p = p
	p.dataReg.p = p
	return p
}

type pioControl struct{ p *pioPeripheral }

func (r *pioControl) Get() uint8  { return r.p.control }
func (r *pioControl) Set(v uint8) { r.p.control = v }

type pioStatus struct{ p *pioPeripheral }

func (r *pioStatus) Get() uint8 { return r.p.status }

func (r *pioStatus) Set(v uint8) {
	done := r.p.layout.Complete
	r.p.status = r.p.status&done | v&^done
}

type pioData struct{ p *pioPeripheral }

func (r *pioData) Get() uint8 {
	r.p.status &^= r.p.layout.Complete
	return r.p.data
}

// Set runs the whole byte exchange on the state machine. A PIO timeout
// leaves the complete flag clear, which the bus reports through its poll
// limit.
func (r *pioData) Set(v uint8) {
	p := r.p
	if p.control&p.layout.Enable == 0 {
		return
	}
	rx, err := p.spi.Transfer(v)
	if err != nil {
		return
	}
	p.data = rx
	p.status |= p.layout.Complete
}
