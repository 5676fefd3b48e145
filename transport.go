package mcclient

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/gstoney/mcclient/packet"
)

// DefaultMaxDecompressedLen bounds the declared size of a compressed payload.
const DefaultMaxDecompressedLen = 8 << 20

type TransportConfig struct {
	MaxPacketLen       int32
	MaxDecompressedLen int32
}

func (c TransportConfig) withDefaults() TransportConfig {
	if c.MaxPacketLen <= 0 {
		c.MaxPacketLen = DefaultMaxFrameLen
	}
	if c.MaxDecompressedLen <= 0 {
		c.MaxDecompressedLen = DefaultMaxDecompressedLen
	}
	return c
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

type byteWriter interface {
	io.Writer
	io.ByteWriter
}

type flusher interface {
	Flush() error
}

// Transport provides read and write access to a framed stream,
// with compression and encryption handled internally.
// Transport does not deserialize packets.
//
// One goroutine may receive while another sends. Each direction must
// only be used by one goroutine at a time.
type Transport struct {
	cipher CipherStage

	reader byteReader // deciphering, above the read buffer
	writer io.Writer  // enciphering, below the write buffer
	flush  flusher

	fReader FrameReader
	zReader io.ReadCloser

	wBuf    bytes.Buffer
	zBuffer bytes.Buffer
	zWriter *zlib.Writer

	// -1 disables compression.
	threshold atomic.Int32

	cfg TransportConfig
}

// NewTransport creates a Transport.
//
// For readers/writers that perform syscalls (e.g. net.Conn), buffering is
// required. Indicate buffered I/O by implementing io.ByteReader/io.ByteWriter.
// If these interfaces are not implemented, the reader/writer will be wrapped
// with bufio.
func NewTransport(r io.Reader, w io.Writer, cfg TransportConfig) *Transport {
	t := &Transport{cfg: cfg.withDefaults()}
	t.threshold.Store(-1)

	if r != nil {
		br, ok := r.(byteReader)
		if !ok {
			br = bufio.NewReader(r)
		}
		t.reader = t.cipher.Reader(br)
		t.fReader = FrameReader{src: t.reader}
	}

	if w != nil {
		bw, ok := w.(byteWriter)
		if !ok {
			bw = bufio.NewWriter(w)
		}
		if f, ok := bw.(flusher); ok {
			t.flush = f
		}
		t.writer = t.cipher.Writer(bw)
	}

	return t
}

// SetCompression sets the size from which outbound payloads are compressed
// and switches both directions to the compressed frame layout. A negative
// threshold disables compression.
func (t *Transport) SetCompression(threshold int32) {
	if threshold < 0 {
		threshold = -1
	}
	t.threshold.Store(threshold)
}

func (t *Transport) CompressionThreshold() int32 {
	return t.threshold.Load()
}

// EnableEncryption turns on the stream cipher for every byte read or
// written from now on.
func (t *Transport) EnableEncryption(secret []byte) error {
	return t.cipher.Enable(secret)
}

func (t *Transport) EncryptionEnabled() bool {
	return t.cipher.Enabled()
}

// Next advances to the next frame and returns a reader over its
// (decompressed) payload.
func (t *Transport) Next() (r PayloadReader, err error) {
	if _, err = t.fReader.Next(t.cfg.MaxPacketLen); err != nil {
		return nil, err
	}

	r = plainPayload{&t.fReader}

	if t.threshold.Load() < 0 {
		return r, nil
	}

	decompressedLen, err := packet.ReadVarInt(&t.fReader)
	if err != nil {
		return r, err
	}

	switch {
	case decompressedLen < 0:
		return r, ErrInvalidDataLength
	case decompressedLen == 0:
		return r, nil
	case decompressedLen > t.cfg.MaxDecompressedLen:
		return r, fmt.Errorf("%w: declared %d bytes after decompression", ErrFrameTooLarge, decompressedLen)
	}

	if t.zReader == nil {
		t.zReader, err = zlib.NewReader(&t.fReader)
	} else {
		err = t.zReader.(zlib.Resetter).Reset(&t.fReader, nil)
	}
	if err != nil {
		return r, err
	}

	return &compressedPayload{t.zReader, &t.fReader, decompressedLen}, nil
}

// Recv reads the next frame and returns its whole payload.
//
// A payload that fails integrity checks is discarded and reported wrapped
// in ErrMalformedPayload; the transport stays usable. Any other error
// leaves the stream misaligned.
func (t *Transport) Recv() (Frame, error) {
	pr, err := t.Next()
	if err != nil {
		return Frame{}, t.payloadError(pr, err)
	}

	buf := make([]byte, pr.Remaining())
	if _, err = io.ReadFull(pr, buf); err != nil {
		return Frame{}, t.payloadError(pr, err)
	}
	if err = pr.Close(); err != nil {
		return Frame{}, t.payloadError(pr, err)
	}
	return Frame{Payload: buf}, nil
}

func (t *Transport) payloadError(pr PayloadReader, err error) error {
	if pr == nil || errors.Is(err, ErrFrameTooLarge) {
		return err
	}
	if broken := t.fReader.Broken(); broken != nil {
		if broken == io.ErrUnexpectedEOF {
			return ErrShortRead
		}
		return broken
	}

	if _, derr := pr.Discard(); derr != nil {
		if broken := t.fReader.Broken(); broken == io.ErrUnexpectedEOF {
			return ErrShortRead
		}
		return derr
	}
	return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
}

// Send writes payload as one frame and flushes it.
func (t *Transport) Send(b []byte) error {
	t.wBuf.Reset()
	length := len(b)
	threshold := t.threshold.Load()

	switch {
	case threshold >= 0 && length >= int(threshold):
		t.zBuffer.Reset()
		if t.zWriter == nil {
			t.zWriter = zlib.NewWriter(&t.zBuffer)
		} else {
			t.zWriter.Reset(&t.zBuffer)
		}
		packet.WriteVarInt(&t.zBuffer, int32(length))

		if _, err := t.zWriter.Write(b); err != nil {
			return err
		}
		if err := t.zWriter.Close(); err != nil {
			return err
		}

		t.wBuf.Write(AppendFrame(nil, t.zBuffer.Bytes()))

	case threshold >= 0:
		packet.WriteVarInt(&t.wBuf, int32(length+1))
		t.wBuf.WriteByte(0)
		t.wBuf.Write(b)

	default:
		packet.WriteVarInt(&t.wBuf, int32(length))
		t.wBuf.Write(b)
	}

	if _, err := t.writer.Write(t.wBuf.Bytes()); err != nil {
		return err
	}
	if t.flush != nil {
		return t.flush.Flush()
	}
	return nil
}
