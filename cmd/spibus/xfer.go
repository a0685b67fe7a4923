package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"spibus/core"
	"spibus/host/remote"
	"spibus/host/serial"
	"spibus/sim"
)

var (
	xferDevice    string
	xferBaud      int
	xferSim       bool
	xferWidth     int
	xferClockDiv  uint8
	xferMode      uint8
	xferPollLimit uint32

	xferCmd = &cobra.Command{
		Use:   "xfer VALUE...",
		Short: "Enable the bus, exchange values and disable it again",
		Long: "Runs Begin, one transfer per VALUE and End, printing what the peer sent back.\n" +
			"Values are 8, 16 or 32 bits wide (--width) and accept 0x/0b/0o prefixes.",
		Args: cobra.MinimumNArgs(1),
		RunE: runXfer,
	}
)

func init() {
	f := xferCmd.Flags()
	f.StringVarP(&xferDevice, "device", "d", "", "Serial device of a board running the register monitor")
	f.IntVar(&xferBaud, "baud", serial.DefaultBaud, "Serial baud rate")
	f.BoolVar(&xferSim, "sim", false, "Use a simulated loopback peripheral")
	f.IntVarP(&xferWidth, "width", "w", 8, "Transfer width in bits: 8, 16 or 32")
	f.Uint8Var(&xferClockDiv, "clock-div", 0, "Clock divider select (0-3)")
	f.Uint8Var(&xferMode, "mode", 0, "SPI data mode (0-3)")
	f.Uint32Var(&xferPollLimit, "poll-limit", 1000, "Status polls per byte before giving up, 0 waits forever")
}

func runXfer(cmd *cobra.Command, args []string) error {
	values, err := parseValues(args, xferWidth)
	if err != nil {
		return err
	}

	var (
		bus    *core.Bus
		client *remote.Client
	)
	switch {
	case xferSim && xferDevice != "":
		return errors.New("--sim and --device are mutually exclusive")
	case xferSim:
		bus = newSimBus(sim.Loopback(), &sim.Reg{})
	case xferDevice != "":
		cfg := serial.DefaultConfig(xferDevice)
		cfg.Baud = xferBaud
		client, err = remote.Dial(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		bus = client.ATmega328PBus()
	default:
		return errors.New("one of --device or --sim is required")
	}
	bus.SetPollLimit(xferPollLimit)

	slog.Debug("exchanging", "count", len(values), "width", xferWidth)
	received, err := runSession(bus, xferWidth, xferClockDiv, xferMode, values)
	if client != nil {
		if linkErr := client.Err(); linkErr != nil {
			return fmt.Errorf("register link: %w", linkErr)
		}
	}
	if err != nil {
		core.DumpEvents()
		return err
	}

	digits := xferWidth / 4
	for i, v := range received {
		fmt.Fprintf(cmd.OutOrStdout(), "0x%0*x -> 0x%0*x\n", digits, values[i], digits, v)
	}
	return nil
}

// newSimBus builds an ATmega328P-layout bus over a simulated peripheral
func newSimBus(p *sim.Peripheral, ddr *sim.Reg) *core.Bus {
	return core.NewBus(p.Control(), p.Status(), p.Data(), core.BusConfig{
		Layout: p.Layout,
		Pins:   core.PinsATmega328P,
		GPIO:   core.PortGPIO{DDR: ddr},
	})
}

// runSession begins the bus, applies the configuration, exchanges values and
// ends the bus. The bus is ended even when a transfer fails.
func runSession(bus *core.Bus, width int, clockDiv, mode uint8, values []uint32) ([]uint32, error) {
	if err := bus.Begin(); err != nil {
		return nil, err
	}
	received, err := configureAndExchange(bus, width, clockDiv, mode, values)
	if endErr := bus.End(); err == nil {
		err = endErr
	}
	return received, err
}

func configureAndExchange(bus *core.Bus, width int, clockDiv, mode uint8, values []uint32) ([]uint32, error) {
	if err := bus.SetClockDivider(clockDiv); err != nil {
		return nil, err
	}
	if err := bus.SetDataMode(mode); err != nil {
		return nil, err
	}
	received := make([]uint32, 0, len(values))
	for _, v := range values {
		var (
			rx  uint32
			err error
		)
		switch width {
		case 8:
			var b byte
			b, err = bus.Transfer(byte(v))
			rx = uint32(b)
		case 16:
			var w uint16
			w, err = bus.TransferWord(uint16(v))
			rx = uint32(w)
		case 32:
			rx, err = bus.TransferDWord(v)
		default:
			return nil, fmt.Errorf("unsupported width %d", width)
		}
		if err != nil {
			return received, fmt.Errorf("transfer 0x%x: %w", v, err)
		}
		received = append(received, rx)
	}
	return received, nil
}

// parseValues parses unsigned values that must fit in width bits
func parseValues(args []string, width int) ([]uint32, error) {
	switch width {
	case 8, 16, 32:
	default:
		return nil, fmt.Errorf("unsupported width %d (want 8, 16 or 32)", width)
	}
	values := make([]uint32, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, width)
		if err != nil {
			return nil, fmt.Errorf("invalid %d-bit value %q: %w", width, arg, err)
		}
		values = append(values, uint32(v))
	}
	return values, nil
}
