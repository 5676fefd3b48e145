package mcclient

import (
	"errors"
	"io"

	"github.com/gstoney/mcclient/packet"
)

// DefaultMaxFrameLen is the largest length a three byte VarInt prefix can carry.
const DefaultMaxFrameLen = 1<<21 - 1

// Frame is one length-delimited chunk of the stream.
type Frame struct {
	Payload []byte
}

// AppendFrame appends the wire form of payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	dst = packet.AppendVarInt(dst, uint32(len(payload)))
	return append(dst, payload...)
}

func WriteFrame(f Frame) []byte {
	return AppendFrame(make([]byte, 0, packet.MaxVarIntLen+len(f.Payload)), f.Payload)
}

// readFrameLength reads a length prefix and checks it against max.
// A stream ending before the first byte is ErrConnectionClosed; one ending
// inside the prefix is ErrShortRead.
func readFrameLength(r io.ByteReader, max int32) (int32, error) {
	v, err := packet.DecodeVarInt(r)
	switch {
	case err == io.EOF:
		return 0, ErrConnectionClosed
	case err == io.ErrUnexpectedEOF:
		return 0, ErrShortRead
	case err != nil:
		return 0, err
	}

	if v > uint32(max) {
		return 0, ErrFrameTooLarge
	}
	return int32(v), nil
}

// ReadFrame reads one frame from r. The payload is allocated only after the
// length has been checked against max.
func ReadFrame(r byteReader, max int32) (Frame, error) {
	length, err := readFrameLength(r, max)
	if err != nil {
		return Frame{}, err
	}

	payload := make([]byte, length)
	if _, err = io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrShortRead
		}
		return Frame{}, err
	}
	return Frame{Payload: payload}, nil
}

// FrameAccumulator splits arbitrarily chunked input into frames. It is meant
// for readers that get whatever bytes are available instead of blocking for
// a full frame.
type FrameAccumulator struct {
	max int32

	prefix  [packet.MaxVarIntLen]byte
	nprefix int

	payload []byte
	filled  int
	sized   bool
}

func NewFrameAccumulator(max int32) *FrameAccumulator {
	return &FrameAccumulator{max: max}
}

// Feed consumes p and returns every frame completed by it, in order.
// Bytes of an incomplete frame are kept for the next call. Once Feed has
// returned an error the accumulator must not be used again.
func (a *FrameAccumulator) Feed(p []byte) ([]Frame, error) {
	var frames []Frame

	for len(p) > 0 {
		if !a.sized {
			if a.nprefix == packet.MaxVarIntLen {
				return frames, packet.ErrMalformedVarInt
			}
			a.prefix[a.nprefix] = p[0]
			a.nprefix++
			p = p[1:]

			if a.prefix[a.nprefix-1]&0x80 != 0 {
				continue
			}

			length, err := packet.DecodeVarInt(&byteSlice{b: a.prefix[:a.nprefix]})
			if err != nil {
				return frames, err
			}
			if length > uint32(a.max) {
				return frames, ErrFrameTooLarge
			}

			a.payload = make([]byte, length)
			a.filled = 0
			a.sized = true
		}

		n := copy(a.payload[a.filled:], p)
		a.filled += n
		p = p[n:]

		if a.filled == len(a.payload) {
			frames = append(frames, Frame{Payload: a.payload})
			a.reset()
		}
	}

	// A fifth prefix byte with the continuation bit set is already malformed.
	if !a.sized && a.nprefix == packet.MaxVarIntLen {
		return frames, packet.ErrMalformedVarInt
	}
	return frames, nil
}

// Buffered reports how many bytes of an incomplete frame are held.
func (a *FrameAccumulator) Buffered() int {
	if a.sized {
		return a.nprefix + a.filled
	}
	return a.nprefix
}

func (a *FrameAccumulator) reset() {
	a.nprefix = 0
	a.payload = nil
	a.filled = 0
	a.sized = false
}

type byteSlice struct {
	b []byte
}

func (s *byteSlice) ReadByte() (byte, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	c := s.b[0]
	s.b = s.b[1:]
	return c, nil
}

// FrameReader wraps a source reader to provide bounded access to one frame at a time.
// It ensures packet frame alignment.
type FrameReader struct {
	src       byteReader
	remaining int32

	// srcErr is the first error the underlying stream returned inside a
	// frame. Once set, the stream cannot be realigned.
	srcErr error
}

func (f *FrameReader) Read(p []byte) (n int, err error) {
	if f.remaining <= 0 {
		return 0, io.EOF
	}
	if int32(len(p)) > f.remaining {
		p = p[0:f.remaining]
	}
	n, err = f.src.Read(p)
	f.remaining -= int32(n)

	if err == io.EOF && f.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	if err != nil && err != io.EOF && f.srcErr == nil {
		f.srcErr = err
	}
	return
}

func (f *FrameReader) ReadByte() (byte, error) {
	if f.remaining <= 0 {
		return 0, io.EOF
	}
	v, err := f.src.ReadByte()
	if err == nil {
		f.remaining -= 1
		return v, nil
	}

	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if f.srcErr == nil {
		f.srcErr = err
	}
	return v, err
}

// Next positions the reader at the start of the next frame's payload and
// returns its length. The length is checked against max before anything
// else is read.
func (f *FrameReader) Next(max int32) (length int32, err error) {
	if f.remaining > 0 {
		return f.remaining, ErrNotExhausted
	}
	if f.srcErr != nil {
		return 0, f.srcErr
	}

	length, err = readFrameLength(f.src, max)
	if err != nil {
		if !errors.Is(err, ErrConnectionClosed) {
			f.srcErr = err
		}
		return 0, err
	}
	if length == 0 {
		// Every packet carries at least its id.
		f.srcErr = ErrInvalidFrameLength
		return 0, ErrInvalidFrameLength
	}

	f.remaining = length
	return
}

func (f *FrameReader) Skip() (n int32, err error) {
	n64, err := io.CopyN(io.Discard, f, int64(f.remaining))
	n = int32(n64)
	return
}

func (f *FrameReader) Remaining() int32 {
	return f.remaining
}

// Broken reports the stream error that makes realignment impossible, if any.
func (f *FrameReader) Broken() error {
	return f.srcErr
}

// PayloadReader provides access to a single packet's payload.
//
// Read returns payload bytes. Remaining reports unread payload bytes.
//
// Skip discards remaining payload bytes, enabling validation on Close.
//
// Close validates payload exhaustion and frame integrity, returning an error
// if the payload was not fully consumed or the frame is malformed.
// Close does not realign on error.
//
// Discard abandons the current frame and realigns to the next frame boundary.
// Use Discard to recover from malformed frames or when validation is not needed.
type PayloadReader interface {
	io.ReadCloser
	Skip() (n int32, err error)
	Discard() (n int32, err error)
	Remaining() int32
}

type plainPayload struct {
	*FrameReader
}

func (p plainPayload) Close() (err error) {
	if p.remaining > 0 {
		err = ErrNotExhausted
	}
	return
}

func (p plainPayload) Discard() (n int32, err error) {
	return p.Skip()
}

type compressedPayload struct {
	zr        io.ReadCloser
	fr        *FrameReader
	remaining int32
}

func (p *compressedPayload) Read(b []byte) (n int, err error) {
	if p.remaining <= 0 {
		return 0, io.EOF
	}
	if int32(len(b)) > p.remaining {
		b = b[0:p.remaining]
	}
	n, err = p.zr.Read(b)
	p.remaining -= int32(n)

	if err == io.EOF && p.remaining > 0 {
		err = ErrZlibPayloadUnderrun
	}
	return
}

func (p *compressedPayload) Skip() (n int32, err error) {
	n64, err := io.CopyN(io.Discard, p, int64(p.remaining))
	n = int32(n64)
	return
}

func (p *compressedPayload) Discard() (n int32, err error) {
	p.remaining = 0
	return p.fr.Skip()
}

func (p *compressedPayload) Close() (err error) {
	if p.remaining > 0 {
		return ErrNotExhausted
	}

	var buf [1]byte
	n, err := p.zr.Read(buf[:])
	if err == nil || n > 0 {
		return ErrZlibPayloadOverrun
	} else if err != io.EOF {
		return err
	}

	if p.fr.remaining > 0 {
		return ErrZlibTrailingData
	}
	return p.zr.Close()
}

func (p *compressedPayload) Remaining() int32 {
	return p.remaining
}
