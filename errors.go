package mcclient

import (
	"errors"
	"fmt"

	"github.com/gstoney/mcclient/packet"
)

var (
	// ErrFrameTooLarge means a length prefix exceeded the configured ceiling.
	// The stream cannot be realigned afterwards.
	ErrFrameTooLarge = errors.New("frame exceeds maximum length")

	// ErrShortRead means the stream ended inside a frame.
	ErrShortRead = errors.New("stream ended inside a frame")

	// ErrConnectionClosed means the stream ended cleanly at a frame boundary.
	ErrConnectionClosed = errors.New("connection closed")

	ErrIOFault           = errors.New("i/o fault")
	ErrNotConnected      = errors.New("not connected")
	ErrCipherMisuse      = errors.New("cipher misuse")
	ErrConnectionUsed    = errors.New("connection already used")
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrMalformedPayload wraps errors confined to a single frame payload.
	// The stream is still aligned on the next frame.
	ErrMalformedPayload = errors.New("malformed frame payload")

	ErrInvalidFrameLength = errors.New("invalid frame length")
	ErrInvalidDataLength  = errors.New("invalid data length")

	ErrNotExhausted        = errors.New("not exhausted")
	ErrZlibPayloadOverrun  = errors.New("zlib stream exceeds declared payload length")
	ErrZlibPayloadUnderrun = errors.New("zlib stream shorter than declared payload length")
	ErrZlibTrailingData    = errors.New("trailing data in frame after zlib stream ends")
)

// SkippedPacketError reports an inbound frame that was dropped without
// tearing the connection down. WireID is -1 if the id itself could not be read.
type SkippedPacketError struct {
	State  packet.State
	WireID int32
	Err    error
}

func (e *SkippedPacketError) Error() string {
	if e.WireID < 0 {
		return fmt.Sprintf("skipped %s packet: %v", e.State, e.Err)
	}
	return fmt.Sprintf("skipped %s packet 0x%02X: %v", e.State, e.WireID, e.Err)
}

func (e *SkippedPacketError) Unwrap() error {
	return e.Err
}

// isProtocolError reports whether err is a framing or cipher violation that
// is recorded as is rather than wrapped in ErrIOFault.
func isProtocolError(err error) bool {
	return errors.Is(err, ErrFrameTooLarge) ||
		errors.Is(err, packet.ErrMalformedVarInt) ||
		errors.Is(err, ErrInvalidFrameLength) ||
		errors.Is(err, ErrCipherMisuse)
}
