package core

// Critical runs fn with interrupts disabled.
// Wrap transfers in it when an interrupt handler shares the bus.
func Critical(fn func()) {
	state := disableInterrupts()
	fn()
	restoreInterrupts(state)
}
