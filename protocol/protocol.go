// Package protocol implements the framed register monitor link between a
// host and a device running core.Monitor.
//
// A frame is [len][seq][payload][crc16 hi][crc16 lo][0x7E]. The payload is a
// VLQ command ID followed by VLQ arguments. Every frame received by the
// device is acknowledged with an empty frame carrying the next sequence.
package protocol

// Protocol constants
const (
	MessageMax = 256 // Scratch buffer size, room for several frames

	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	MessageSeqMask = 0x0F
)

// Command and response IDs
const (
	CmdPeek          = 0 // peek addr=%u
	CmdPoke          = 1 // poke addr=%u value=%c
	CmdPeekResponse  = 2 // peek_response addr=%u value=%c
	CmdPokeResponse  = 3 // poke_response addr=%u
	CmdErrorResponse = 4 // error_response addr=%u code=%c
)

// Error codes carried by CmdErrorResponse
const (
	CodeUnknownRegister = 1
	CodeBadArguments    = 2
)

// nextSeq returns the sequence following seq
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
