//go:build rp2040

// Firmware for the RP2040: a PIO state machine does the shifting, the
// polling bus drives it through emulated registers, and the register
// monitor is served on USB serial.
package main

import (
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"spibus/core"
)

// PIO SPI pins. The emulated registers are served at the ATmega328P
// addresses so the host tool needs no per-target table.
const (
	pinSCK = machine.GPIO2
	pinSDO = machine.GPIO3
	pinSDI = machine.GPIO4
)

func main() {
	time.Sleep(2 * time.Second) // Let USB CDC enumerate
	core.SetDebugWriter(func(s string) { println(s) })

	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		println("pio:", err.Error())
		return
	}
	spi, err := piolib.NewSPI(sm, machine.SPIConfig{
		Frequency: 1_000_000,
		SCK:       pinSCK,
		SDO:       pinSDO,
		SDI:       pinSDI,
		Mode:      0,
	})
	if err != nil {
		println("pio spi:", err.Error())
		return
	}
	p := newPIOPeripheral(spi)

	// The state machine owns its pins; no GPIO driver.
	bus := core.NewBus(&p.controlReg, &p.statusReg, &p.dataReg, core.BusConfig{Layout: p.layout})
	bus.SetPollLimit(1)
	if err := bus.Begin(); err == nil {
		got, err := bus.TransferDWord(0xAABBCCDD)
		if err != nil {
			println("spi self-test:", err.Error())
			core.DumpEvents()
		} else if got == 0xAABBCCDD {
			println("spi self-test: ok")
		}
		bus.End()
	}

	m := core.NewMonitor()
	m.Attach(core.AddrSPCR, &p.controlReg)
	m.Attach(core.AddrSPSR, &p.statusReg)
	m.Attach(core.AddrSPDR, &p.dataReg)
	for {
		if err := m.Serve(machine.Serial); err != nil {
			println("monitor:", err.Error())
		}
	}
}
