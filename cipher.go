package mcclient

import (
	"crypto/aes"
	"fmt"
	"io"
	"sync/atomic"
)

// SharedSecretLen is the AES-128 key size used for the stream cipher.
const SharedSecretLen = 16

// CipherStage sits between the socket buffers and the frame codec.
// Until Enable is called its readers and writers pass bytes through
// untouched; afterwards every byte is run through AES/CFB8 keyed with
// the shared secret, which doubles as the IV.
type CipherStage struct {
	enabled atomic.Bool
	dec     atomic.Pointer[cfb8]
	enc     atomic.Pointer[cfb8]
}

// Enable switches both directions to ciphered I/O at the current byte
// position. It succeeds at most once.
func (c *CipherStage) Enable(secret []byte) error {
	if len(secret) != SharedSecretLen {
		return fmt.Errorf("%w: shared secret must be %d bytes, got %d", ErrCipherMisuse, SharedSecretLen, len(secret))
	}
	if !c.enabled.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: cipher already enabled", ErrCipherMisuse)
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCipherMisuse, err)
	}
	c.dec.Store(newCFB8(block, secret, true))
	c.enc.Store(newCFB8(block, secret, false))
	return nil
}

func (c *CipherStage) Enabled() bool {
	return c.enabled.Load()
}

// Reader returns a reader that deciphers bytes as they are consumed from r.
// r is typically buffered: bytes it reads ahead stay ciphered until taken.
func (c *CipherStage) Reader(r byteReader) byteReader {
	return &cipherReader{src: r, stage: c}
}

// Writer returns a writer that enciphers bytes before handing them to w.
// The caller's slice is never modified.
func (c *CipherStage) Writer(w io.Writer) io.Writer {
	return &cipherWriter{dst: w, stage: c}
}

type cipherReader struct {
	src   byteReader
	stage *CipherStage
}

func (r *cipherReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if s := r.stage.dec.Load(); s != nil && n > 0 {
		s.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}

func (r *cipherReader) ReadByte() (byte, error) {
	b, err := r.src.ReadByte()
	if err != nil {
		return b, err
	}
	if s := r.stage.dec.Load(); s != nil {
		var one [1]byte
		s.XORKeyStream(one[:], []byte{b})
		b = one[0]
	}
	return b, nil
}

type cipherWriter struct {
	dst     io.Writer
	stage   *CipherStage
	scratch []byte
}

func (w *cipherWriter) Write(p []byte) (int, error) {
	s := w.stage.enc.Load()
	if s == nil {
		return w.dst.Write(p)
	}

	if cap(w.scratch) < len(p) {
		w.scratch = make([]byte, len(p))
	}
	out := w.scratch[:len(p)]
	s.XORKeyStream(out, p)
	return w.dst.Write(out)
}
