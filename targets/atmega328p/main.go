//go:build avr && atmega328p

// Firmware for the ATmega328P: runs a loopback self-test on the hardware SPI
// peripheral, then serves the register monitor on the UART so a host can
// drive the same registers with `spibus xfer --device`.
package main

import (
	"device/avr"
	"machine"

	"spibus/core"
	"spibus/host/serial"
)

func main() {
	uart := machine.Serial
	uart.Configure(machine.UARTConfig{BaudRate: serial.DefaultBaud})

	core.SetDebugWriter(func(s string) { println(s) })

	bus := core.NewBus(avr.SPCR, avr.SPSR, avr.SPDR, core.BusConfig{
		Layout: core.LayoutATmega328P,
		Pins:   core.PinsATmega328P,
		GPIO:   core.PortGPIO{DDR: avr.DDRB},
	})
	selfTest(bus)

	m := core.NewMonitor()
	m.Attach(core.AddrSPCR, avr.SPCR)
	m.Attach(core.AddrSPSR, avr.SPSR)
	m.Attach(core.AddrSPDR, avr.SPDR)
	m.Attach(core.AddrDDRB, avr.DDRB)
	for {
		if err := m.Serve(uart); err != nil {
			println("monitor:", err.Error())
		}
	}
}

// selfTest exchanges one word with MOSI jumpered to MISO. Without the jumper
// the check fails harmlessly.
func selfTest(bus *core.Bus) {
	// A missing peripheral clock must not hang the board before the monitor starts
	bus.SetPollLimit(10000)
	defer bus.SetPollLimit(0)

	if err := bus.Begin(); err != nil {
		println("spi begin:", err.Error())
		return
	}
	var (
		got uint16
		err error
	)
	core.Critical(func() {
		got, err = bus.TransferWord(0xA55A)
	})
	switch {
	case err != nil:
		println("spi self-test:", err.Error())
		core.DumpEvents()
	case got != 0xA55A:
		println("spi self-test: no loopback jumper")
	default:
		println("spi self-test: ok")
	}
	if err := bus.End(); err != nil {
		println("spi end:", err.Error())
	}
}
