package core

import "golang.org/x/exp/constraints"

// Wire orders list the bit shift of each byte in the order it is clocked out.
// They are the only place byte order is decided; changing them breaks wire
// compatibility with existing peers.
var (
	// wordOrder sends the most significant byte first.
	wordOrder = [2]uint8{8, 0}

	// dwordOrder is the legacy double-word order: low half-word first, each
	// half-word low byte first. For 0xAABBCCDD the wire sees DD CC BB AA.
	dwordOrder = [4]uint8{0, 8, 16, 24}
)

// split writes the bytes of v into dst in wire order.
func split[T constraints.Unsigned](dst []byte, v T, order []uint8) {
	for i, shift := range order {
		dst[i] = byte(v >> shift)
	}
}

// join assembles a value from bytes received in wire order.
func join[T constraints.Unsigned](src []byte, order []uint8) T {
	var v T
	for i, shift := range order {
		v |= T(src[i]) << shift
	}
	return v
}

// EncodeWord returns the bytes of w in the order TransferWord sends them.
func EncodeWord(w uint16) (b [2]byte) {
	split(b[:], w, wordOrder[:])
	return b
}

// DecodeWord reassembles a word from bytes in TransferWord order.
func DecodeWord(b [2]byte) uint16 {
	return join[uint16](b[:], wordOrder[:])
}

// EncodeDWord returns the bytes of d in the order TransferDWord sends them.
func EncodeDWord(d uint32) (b [4]byte) {
	split(b[:], d, dwordOrder[:])
	return b
}

// DecodeDWord reassembles a double-word from bytes in TransferDWord order.
func DecodeDWord(b [4]byte) uint32 {
	return join[uint32](b[:], dwordOrder[:])
}
