//go:build tinygo && !avr

package core

func spinHint() {}
