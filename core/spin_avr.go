//go:build tinygo && avr

package core

import "device/avr"

// spinHint burns one cycle between loading the data register and the first
// status poll; the peripheral cannot finish a byte sooner.
func spinHint() {
	avr.Asm("nop")
}
