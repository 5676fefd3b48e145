package mcclient

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// NIST SP 800-38A, F.3.7 and F.3.8.
func TestCFB8_KnownAnswer(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	iv := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plain := mustHex(t, "6bc1bee22e409f96e93d7e117393172aae2d")
	want := mustHex(t, "3b79424c9c0dd436bace9e0ed4586a4f32b9")

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]byte, len(plain))
	newCFB8(block, iv, false).XORKeyStream(got, plain)
	if !bytes.Equal(got, want) {
		t.Fatalf("encrypt: got %x, want %x", got, want)
	}

	// Byte-at-a-time decryption in place.
	dec := newCFB8(block, iv, true)
	for i := range got {
		dec.XORKeyStream(got[i:i+1], got[i:i+1])
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("decrypt: got %x, want %x", got, plain)
	}
}

func TestCipherStage_Enable(t *testing.T) {
	var c CipherStage

	if err := c.Enable(make([]byte, 8)); !errors.Is(err, ErrCipherMisuse) {
		t.Errorf("Enable with short secret: got %v, want ErrCipherMisuse", err)
	}
	if c.Enabled() {
		t.Fatal("Enabled after rejected secret")
	}

	if err := c.Enable(make([]byte, SharedSecretLen)); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := c.Enable(make([]byte, SharedSecretLen)); !errors.Is(err, ErrCipherMisuse) {
		t.Errorf("second Enable: got %v, want ErrCipherMisuse", err)
	}
}

// TestCipherStage_Boundary scripts a stream whose second half is ciphered.
// Bytes before the marker read the same with or without a later Enable;
// bytes after it only read correctly through the cipher.
func TestCipherStage_Boundary(t *testing.T) {
	secret := []byte("0123456789abcdef")
	before := WriteFrame(Frame{Payload: []byte("handshake-ish plaintext")})
	after := WriteFrame(Frame{Payload: []byte("everything after the toggle")})

	var wire bytes.Buffer
	var sender CipherStage
	w := sender.Writer(&wire)
	w.Write(before)
	if err := sender.Enable(secret); err != nil {
		t.Fatal(err)
	}
	sent := append([]byte(nil), after...)
	w.Write(sent)
	if !bytes.Equal(sent, after) {
		t.Fatal("Writer modified the caller's buffer")
	}
	script := wire.Bytes()

	read := func(enable bool) (Frame, Frame, error) {
		var stage CipherStage
		r := stage.Reader(bytes.NewReader(script))

		first, err := ReadFrame(r, DefaultMaxFrameLen)
		if err != nil {
			return Frame{}, Frame{}, err
		}
		if enable {
			if err := stage.Enable(secret); err != nil {
				return first, Frame{}, err
			}
		}
		second, err := ReadFrame(r, DefaultMaxFrameLen)
		return first, second, err
	}

	firstOn, secondOn, err := read(true)
	if err != nil {
		t.Fatalf("read with cipher: %v", err)
	}
	if !bytes.Equal(WriteFrame(secondOn), after) {
		t.Errorf("with cipher: got %x, want %x", WriteFrame(secondOn), after)
	}

	firstOff, secondOff, err := read(false)
	if !bytes.Equal(firstOff.Payload, firstOn.Payload) || !bytes.Equal(WriteFrame(firstOn), before) {
		t.Errorf("bytes before the marker differ: %x vs %x", firstOff.Payload, firstOn.Payload)
	}
	if err == nil && bytes.Equal(secondOff.Payload, secondOn.Payload) {
		t.Errorf("bytes after the marker read as plaintext without the cipher")
	}
}
