package protocol

// CommandHandler handles one decoded command. The handler decodes its own
// arguments from data and must consume them.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Frame scan results
const (
	frameOK       = iota // A complete, valid frame is at the start of data
	frameNeedMore        // Data holds a frame prefix
	frameBad             // Data does not start with a valid frame
)

// scanFrame checks the frame at the start of data and returns its length.
func scanFrame(data []byte) (msgLen int, result int) {
	if len(data) < MessageLengthMin {
		return 0, frameNeedMore
	}
	msgLen = int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return 0, frameBad
	}
	if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return 0, frameBad
	}
	if len(data) < msgLen {
		return 0, frameNeedMore
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return 0, frameBad
	}
	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return 0, frameBad
	}
	return msgLen, frameOK
}

// skipToSync drops data up to and including the next sync byte.
// It reports whether one was found.
func skipToSync(data []byte) ([]byte, bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}

// Transport is the device side of the link: it parses host frames,
// dispatches their commands and acknowledges them.
type Transport struct {
	synchronized bool
	nextSequence uint8 // Expected sequence of the next host frame
	output       OutputBuffer
	handler      CommandHandler
}

// NewTransport creates a new Transport writing replies to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		synchronized: true,
		nextSequence: MessageDest,
		output:       output,
		handler:      handler,
	}
}

// Receive processes incoming data from the input buffer and pops what it
// consumed. A trailing partial frame is left in the buffer.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.synchronized {
			var found bool
			data, found = skipToSync(data)
			if found {
				t.synchronized = true
				t.encodeAck()
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		msgLen, result := scanFrame(data)
		if result == frameNeedMore {
			break
		}
		if result == frameBad {
			t.synchronized = false
			continue
		}

		seq := data[MessagePositionSeq]
		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		// A host restarting its sequence resets ours
		if seq == MessageDest {
			t.nextSequence = MessageDest
		}
		if seq == t.nextSequence {
			t.nextSequence = nextSeq(seq)
			t.parseFrame(frame)
		}
		// Acknowledge every frame. A stale sequence makes this a NAK
		// carrying the sequence we expect.
		t.encodeAck()
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches every command in a frame. A malformed command ID
// drops the rest of the frame.
func (t *Transport) parseFrame(frame []byte) {
	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			return
		}
	}
}

// encodeAck writes an empty frame carrying the next expected sequence
func (t *Transport) encodeAck() {
	ns := t.nextSequence
	crc := CRC16([]byte{MessageLengthMin, ns})
	t.output.Output([]byte{
		MessageLengthMin,
		ns,
		uint8(crc >> 8),
		uint8(crc),
		MessageValueSync,
	})
}

// EncodeFrame writes one frame whose payload is produced by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()
	t.output.Output([]byte{0, t.nextSequence})

	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc),
		MessageValueSync,
	})
}

// SendCommand writes a frame holding one command and its arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.synchronized = true
	t.nextSequence = MessageDest
}
