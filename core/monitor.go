package core

import (
	"io"
	"runtime"

	"spibus/protocol"
)

// Monitor exposes registers to a host over the framed protocol link, so a
// host can drive a Bus whose registers live on the device.
type Monitor struct {
	regs      map[uint16]Register
	registry  *CommandRegistry
	transport *protocol.Transport
	output    *protocol.ScratchOutput
	input     *protocol.FifoBuffer
}

// NewMonitor creates a monitor with no registers attached
func NewMonitor() *Monitor {
	m := &Monitor{
		regs:     make(map[uint16]Register),
		registry: NewCommandRegistry(),
		output:   protocol.NewScratchOutput(),
		input:    protocol.NewFifoBuffer(128),
	}

	// Registration order fixes the IDs in protocol.Cmd*
	m.registry.Register("peek", "addr=%u", m.handlePeek)
	m.registry.Register("poke", "addr=%u value=%c", m.handlePoke)
	m.registry.Register("peek_response", "addr=%u value=%c", nil)
	m.registry.Register("poke_response", "addr=%u", nil)
	m.registry.Register("error_response", "addr=%u code=%c", nil)

	m.transport = protocol.NewTransport(m.output, m.registry.Dispatch)
	return m
}

// Attach makes reg reachable at addr
func (m *Monitor) Attach(addr uint16, reg Register) {
	m.regs[addr] = reg
}

// Registry returns the monitor's command registry
func (m *Monitor) Registry() *CommandRegistry {
	return m.registry
}

// Feed processes bytes received from the host and writes the replies to w
func (m *Monitor) Feed(p []byte, w io.Writer) error {
	for len(p) > 0 {
		n := m.input.Write(p)
		p = p[n:]
		m.transport.Receive(m.input)
		if err := m.flush(w); err != nil {
			return err
		}
		if n == 0 && m.input.Free() == 0 {
			// A full buffer the transport cannot consume is garbage
			m.input.Reset()
		}
	}
	return nil
}

// Serve reads host frames from rw and answers them until rw returns an
// error. io.EOF ends Serve without error.
func (m *Monitor) Serve(rw io.ReadWriter) error {
	var buf [64]byte
	for {
		n, err := rw.Read(buf[:])
		if n > 0 {
			if ferr := m.Feed(buf[:n], rw); ferr != nil {
				return ferr
			}
		} else if err == nil {
			// Nothing pending on a non-blocking UART
			runtime.Gosched()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m *Monitor) flush(w io.Writer) error {
	out := m.output.Result()
	if len(out) == 0 {
		return nil
	}
	_, err := w.Write(out)
	m.output.Reset()
	return err
}

// handlePeek answers peek addr=%u
func (m *Monitor) handlePeek(data *[]byte) error {
	addr, err := protocol.DecodeVLQUint(data)
	if err != nil {
		m.sendError(0, protocol.CodeBadArguments)
		return err
	}
	reg, ok := m.regs[uint16(addr)]
	if !ok {
		m.sendError(addr, protocol.CodeUnknownRegister)
		return nil
	}
	value := reg.Get()
	m.transport.SendCommand(protocol.CmdPeekResponse, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, addr)
		protocol.EncodeVLQUint(output, uint32(value))
	})
	return nil
}

// handlePoke answers poke addr=%u value=%c
func (m *Monitor) handlePoke(data *[]byte) error {
	addr, err := protocol.DecodeVLQUint(data)
	if err != nil {
		m.sendError(0, protocol.CodeBadArguments)
		return err
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		m.sendError(addr, protocol.CodeBadArguments)
		return err
	}
	reg, ok := m.regs[uint16(addr)]
	if !ok {
		m.sendError(addr, protocol.CodeUnknownRegister)
		return nil
	}
	reg.Set(uint8(value))
	m.transport.SendCommand(protocol.CmdPokeResponse, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, addr)
	})
	return nil
}

func (m *Monitor) sendError(addr uint32, code uint8) {
	m.transport.SendCommand(protocol.CmdErrorResponse, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, addr)
		protocol.EncodeVLQUint(output, uint32(code))
	})
}
