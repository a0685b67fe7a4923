package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultTimeout bounds each wait for an ACK or a response
const DefaultTimeout = 2 * time.Second

var ErrClosed = errors.New("protocol: transport closed")

// Message is one parsed frame
type Message struct {
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
}

// HostTransport is the host side of the link: it sends command frames,
// waits for their ACK and collects responses.
type HostTransport struct {
	port io.ReadWriteCloser

	currentSeq   uint8 // Sequence of the next frame to send
	synchronized bool  // Guarded by readMutex

	inputBuffer *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	requestMutex sync.Mutex
	readMutex    sync.Mutex

	closeOnce sync.Once
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewHostTransport creates a host transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		currentSeq:   MessageDest,
		synchronized: true,
		inputBuffer:  NewFifoBuffer(512),
		ackChan:      make(chan *Message, 4),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// Request sends one command, waits for its ACK and returns the next response
func (t *HostTransport) Request(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) (*Message, error) {
	t.requestMutex.Lock()
	defer t.requestMutex.Unlock()

	t.drainResponses()

	msg, err := t.buildCommandMessage(cmdID, args)
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}
	if err := t.writeMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}
	if err := t.waitForAck(timeout); err != nil {
		return nil, fmt.Errorf("ACK timeout or error: %w", err)
	}
	return t.receiveResponse(timeout)
}

// buildCommandMessage constructs a complete frame for one command
func (t *HostTransport) buildCommandMessage(cmdID uint16, args func(output OutputBuffer)) ([]byte, error) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{0, t.currentSeq})
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}

	msgLen := scratch.CurPosition() + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, fmt.Errorf("message too long: %d bytes (max %d)", msgLen, MessageLengthMax)
	}
	scratch.Update(MessagePositionLen, uint8(msgLen))

	crc := CRC16(scratch.Result())
	scratch.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})

	return append([]byte(nil), scratch.Result()...), nil
}

// writeMessage sends a frame to the port
func (t *HostTransport) writeMessage(msg []byte) error {
	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// waitForAck waits for the ACK of the frame just sent and advances the
// sequence. An ACK carrying any other sequence is a NAK.
func (t *HostTransport) waitForAck(timeout time.Duration) error {
	expected := nextSeq(t.currentSeq)
	select {
	case ack := <-t.ackChan:
		if ack.Sequence != expected {
			return fmt.Errorf("sequence mismatch: expected 0x%02x, got 0x%02x", expected, ack.Sequence)
		}
		t.currentSeq = expected
		return nil

	case <-time.After(timeout):
		return fmt.Errorf("ACK timeout after %v", timeout)

	case <-t.stopChan:
		return ErrClosed
	}
}

// receiveResponse waits for one response frame
func (t *HostTransport) receiveResponse(timeout time.Duration) (*Message, error) {
	select {
	case resp := <-t.responseChan:
		return resp, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("response timeout after %v", timeout)

	case <-t.stopChan:
		return nil, ErrClosed
	}
}

// drainResponses drops responses left over from an earlier timed out request
func (t *HostTransport) drainResponses() {
	for {
		select {
		case <-t.responseChan:
		case <-t.ackChan:
		default:
			return
		}
	}
}

// readLoop continuously reads from the port and dispatches frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)
	for {
		n, err := t.port.Read(buffer)
		if n > 0 {
			t.inputBuffer.Write(buffer[:n])
			t.processMessages()
		}
		if err != nil {
			select {
			case <-t.stopChan:
				return
			default:
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return
			}
			// tarm/serial reports a read timeout as io.EOF; retry.
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processMessages parses and dispatches frames from the input buffer
func (t *HostTransport) processMessages() {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	data := t.inputBuffer.Data()
	for len(data) > 0 {
		if !t.synchronized {
			data, t.synchronized = skipToSync(data)
			continue
		}
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

		msg := &Message{
			Sequence: data[MessagePositionSeq],
			Payload:  append([]byte(nil), data[MessageHeaderSize:msgLen-MessageTrailerSize]...),
		}
		data = data[msgLen:]
		t.dispatchMessage(msg)
	}

	consumed := t.inputBuffer.Available() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// dispatchMessage routes an empty frame to the ACK channel and anything
// else to the response channel, dropping the oldest response when full.
func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	select {
	case t.responseChan <- msg:
	default:
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the transport and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}
