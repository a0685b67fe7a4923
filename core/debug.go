package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BusEvent captures a bus state change for post-mortem analysis
type BusEvent struct {
	Kind    uint8 // Event kind (Evt*)
	Arg     uint8 // Context-dependent value
	Control uint8 // Control register after the event
}

// Event kinds
const (
	EvtBegin        = 1 // Peripheral enabled
	EvtEnd          = 2 // Peripheral disabled
	EvtClockDivider = 3 // Clock divider changed, Arg = divider
	EvtDataMode     = 4 // Data mode changed, Arg = mode
	EvtTimeout      = 5 // Transfer poll limit exceeded, Arg = byte sent
	EvtRejected     = 6 // Lifecycle gate refused an operation, Arg = op*
)

// Operations named by EvtRejected
const (
	opBegin        = 1
	opEnd          = 2
	opClockDivider = 3
	opDataMode     = 4
)

const (
	EventRingSize = 16 // Keep last 16 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]BusEvent
	eventRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures a bus event in the ring buffer
func RecordEvent(kind, arg, control uint8) {
	idx := eventRingHead
	eventRing[idx] = BusEvent{Kind: kind, Arg: arg, Control: control}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []BusEvent {
	var out []BusEvent
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// DumpEvents outputs the event ring (call on shutdown/error)
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[SPI] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[SPI] " + eventName(evt.Kind) +
			" arg=" + itoa(int(evt.Arg)) +
			" ctl=0x" + hex8(evt.Control))
	}
	debugPrintln("[SPI] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = BusEvent{}
	}
	eventRingHead = 0
}

func eventName(kind uint8) string {
	switch kind {
	case EvtBegin:
		return "BEGIN"
	case EvtEnd:
		return "END"
	case EvtClockDivider:
		return "CLOCK_DIV"
	case EvtDataMode:
		return "DATA_MODE"
	case EvtTimeout:
		return "TIMEOUT!"
	case EvtRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}
