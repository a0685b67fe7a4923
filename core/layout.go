package core

// Layout places the platform-specific bits the bus touches.
// Each field is a single-bit mask.
type Layout struct {
	Enable      uint8 // Control: peripheral enable
	Master      uint8 // Control: master mode select
	Complete    uint8 // Status: transfer complete flag
	DoubleSpeed uint8 // Status: double clock rate
}

// Control register fields shared by every layout.
const (
	ClockRateMask = 0b11 // Bits 0-1: clock divider select
	PhaseBit      = 1 << 2
	PolarityBit   = 1 << 3

	dataModeShift = 2
	dataModeMask  = 0b11 << dataModeShift
)

// LayoutATmega328P is the SPCR/SPSR layout of the ATmega328P.
var LayoutATmega328P = Layout{
	Enable:      1 << 6, // SPE
	Master:      1 << 4, // MSTR
	Complete:    1 << 7, // SPIF
	DoubleSpeed: 1 << 0, // SPI2X
}

// ATmega328P data-space addresses, used as register monitor addresses.
const (
	AddrDDRB = 0x24
	AddrSPCR = 0x4C
	AddrSPSR = 0x4D
	AddrSPDR = 0x4E
)

// ATmega328P port B pins carrying the SPI lines.
var PinsATmega328P = SPIPins{
	Select: 2,
	SDO:    3,
	SDI:    4,
	Clock:  5,
}

func (l Layout) controlBits() uint8 { return l.Enable | l.Master }
