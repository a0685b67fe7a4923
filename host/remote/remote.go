// Package remote drives registers on a device running core.Monitor, so a
// core.Bus can run on the host against real hardware.
package remote

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"spibus/core"
	"spibus/host/serial"
	"spibus/protocol"
)

var (
	ErrUnknownRegister = errors.New("remote: unknown register")
	ErrBadArguments    = errors.New("remote: device rejected arguments")
	ErrUnexpectedReply = errors.New("remote: unexpected reply")
)

// Client issues peek and poke requests over one link
type Client struct {
	transport *protocol.HostTransport
	timeout   time.Duration

	mu  sync.Mutex
	err error // First error seen by a Register
}

// NewClient starts a client on an open link
func NewClient(port io.ReadWriteCloser) *Client {
	return &Client{
		transport: protocol.NewHostTransport(port),
		timeout:   protocol.DefaultTimeout,
	}
}

// Dial opens a serial port and starts a client on it
func Dial(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Device, err)
	}
	return NewClient(port), nil
}

// SetTimeout changes how long each request waits for the device
func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// Peek reads the register at addr
func (c *Client) Peek(addr uint16) (uint8, error) {
	msg, err := c.transport.Request(protocol.CmdPeek, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(addr))
	}, c.timeout)
	if err != nil {
		return 0, fmt.Errorf("peek %#x: %w", addr, err)
	}
	args, err := decodeReply(msg, protocol.CmdPeekResponse, addr)
	if err != nil {
		return 0, fmt.Errorf("peek %#x: %w", addr, err)
	}
	value, err := protocol.DecodeVLQUint(&args)
	if err != nil {
		return 0, fmt.Errorf("peek %#x: %w", addr, err)
	}
	return uint8(value), nil
}

// Poke writes value to the register at addr
func (c *Client) Poke(addr uint16, value uint8) error {
	msg, err := c.transport.Request(protocol.CmdPoke, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(addr))
		protocol.EncodeVLQUint(output, uint32(value))
	}, c.timeout)
	if err != nil {
		return fmt.Errorf("poke %#x: %w", addr, err)
	}
	if _, err := decodeReply(msg, protocol.CmdPokeResponse, addr); err != nil {
		return fmt.Errorf("poke %#x: %w", addr, err)
	}
	return nil
}

// decodeReply checks a response's ID and address and returns the remaining
// arguments.
func decodeReply(msg *protocol.Message, want uint16, addr uint16) ([]byte, error) {
	data := msg.Payload
	id, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	gotAddr, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	if uint16(id) == protocol.CmdErrorResponse {
		code, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		if code == protocol.CodeUnknownRegister {
			return nil, ErrUnknownRegister
		}
		return nil, ErrBadArguments
	}
	if uint16(id) != want || uint16(gotAddr) != addr {
		return nil, fmt.Errorf("%w: id=%d addr=%#x", ErrUnexpectedReply, id, gotAddr)
	}
	return data, nil
}

// Register returns a core.Register backed by the device register at addr.
// core.Register cannot report errors: a failed access reads as 0 and is
// kept for Err.
func (c *Client) Register(addr uint16) *Register {
	return &Register{client: c, addr: addr}
}

// Err returns the first error a Register ran into
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Close stops the client and closes its link
func (c *Client) Close() error {
	return c.transport.Close()
}

// Register is a device register reached through a Client
type Register struct {
	client *Client
	addr   uint16
}

var _ core.Register = (*Register)(nil)

func (r *Register) Get() uint8 {
	v, err := r.client.Peek(r.addr)
	if err != nil {
		r.client.setErr(err)
	}
	return v
}

func (r *Register) Set(v uint8) {
	if err := r.client.Poke(r.addr, v); err != nil {
		r.client.setErr(err)
	}
}

// Addr returns the device address of the register
func (r *Register) Addr() uint16 { return r.addr }

// ATmega328PBus builds a bus over the SPI registers and port B direction
// register of an ATmega328P running the monitor.
func (c *Client) ATmega328PBus() *core.Bus {
	return core.NewBus(
		c.Register(core.AddrSPCR),
		c.Register(core.AddrSPSR),
		c.Register(core.AddrSPDR),
		core.BusConfig{
			Layout: core.LayoutATmega328P,
			Pins:   core.PinsATmega328P,
			GPIO:   core.PortGPIO{DDR: c.Register(core.AddrDDRB)},
		},
	)
}
