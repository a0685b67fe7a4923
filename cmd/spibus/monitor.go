package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"spibus/core"
	"spibus/sim"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Serve a simulated ATmega328P register monitor on stdin/stdout",
	Long: "Runs the device side of the register link against a simulated loopback\n" +
		"peripheral. Pair it with a pseudo terminal (e.g. socat) to exercise\n" +
		"'spibus xfer --device' without hardware.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newSimMonitor(sim.Loopback(), &sim.Reg{})
		slog.Info("serving simulated monitor on stdio")
		return m.Serve(stdio{Reader: os.Stdin, Writer: os.Stdout})
	},
}

type stdio struct {
	io.Reader
	io.Writer
}

// newSimMonitor attaches a simulated peripheral and direction register at
// the ATmega328P addresses
func newSimMonitor(p *sim.Peripheral, ddr *sim.Reg) *core.Monitor {
	m := core.NewMonitor()
	m.Attach(core.AddrSPCR, p.Control())
	m.Attach(core.AddrSPSR, p.Status())
	m.Attach(core.AddrSPDR, p.Data())
	m.Attach(core.AddrDDRB, ddr)
	return m
}
