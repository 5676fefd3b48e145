package mcclient

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/gstoney/mcclient/packet"
)

func TestFrame_Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sizes := []int{0, 1, 127, 128, 300, 16384, 70000}

	for _, n := range sizes {
		payload := make([]byte, n)
		rng.Read(payload)

		wire := WriteFrame(Frame{Payload: payload})
		if len(wire) != packet.VarIntSize(uint32(n))+n {
			t.Fatalf("WriteFrame(%d bytes) produced %d bytes", n, len(wire))
		}

		got, err := ReadFrame(bytes.NewReader(wire), DefaultMaxFrameLen)
		if err != nil {
			t.Fatalf("ReadFrame(%d bytes): %v", n, err)
		}
		if !bytes.Equal(got.Payload, payload) {
			t.Errorf("ReadFrame(%d bytes): payload mismatch", n)
		}
	}
}

func TestFrame_TooLarge(t *testing.T) {
	// Claims 2 MiB but carries 3 bytes.
	wire := append(packet.EncodeVarInt(2<<20), 1, 2, 3)
	r := bytes.NewReader(wire)

	_, err := ReadFrame(r, 1024)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("ReadFrame: got %v, want ErrFrameTooLarge", err)
	}
	if r.Len() != 3 {
		t.Errorf("ReadFrame consumed payload bytes: %d left, want 3", r.Len())
	}
}

func TestFrame_EndOfStream(t *testing.T) {
	testCases := []struct {
		desc string
		wire []byte
		want error
	}{
		{desc: "Empty", wire: nil, want: ErrConnectionClosed},
		{desc: "Partial prefix", wire: []byte{0x80, 0x80}, want: ErrShortRead},
		{desc: "Partial payload", wire: []byte{0x04, 1, 2}, want: ErrShortRead},
		{desc: "Malformed prefix", wire: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, want: packet.ErrMalformedVarInt},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tC.wire), DefaultMaxFrameLen)
			if !errors.Is(err, tC.want) {
				t.Errorf("ReadFrame: got %v, want %v", err, tC.want)
			}
		})
	}
}

func TestFrameAccumulator_ByteAtATime(t *testing.T) {
	payloads := [][]byte{
		[]byte("first"),
		{},
		bytes.Repeat([]byte{0xAB}, 300),
		[]byte("last"),
	}
	var wire []byte
	for _, p := range payloads {
		wire = AppendFrame(wire, p)
	}

	chunkings := map[string]int{"byte": 1, "odd": 7, "all": len(wire)}
	for name, size := range chunkings {
		t.Run(name, func(t *testing.T) {
			a := NewFrameAccumulator(DefaultMaxFrameLen)
			var got []Frame

			for off := 0; off < len(wire); off += size {
				end := min(off+size, len(wire))

				// Empty reads must not disturb the partial state.
				if frames, err := a.Feed(nil); err != nil || len(frames) != 0 {
					t.Fatalf("Feed(nil) = %d frames, %v", len(frames), err)
				}

				frames, err := a.Feed(wire[off:end])
				if err != nil {
					t.Fatalf("Feed: %v", err)
				}
				got = append(got, frames...)
			}

			if len(got) != len(payloads) {
				t.Fatalf("got %d frames, want %d", len(got), len(payloads))
			}
			for i, want := range payloads {
				if !bytes.Equal(got[i].Payload, want) {
					t.Errorf("frame[%d]: got %x, want %x", i, got[i].Payload, want)
				}
			}
			if a.Buffered() != 0 {
				t.Errorf("Buffered: got %d, want 0", a.Buffered())
			}
		})
	}
}

func TestFrameAccumulator_Partial(t *testing.T) {
	a := NewFrameAccumulator(DefaultMaxFrameLen)
	wire := WriteFrame(Frame{Payload: bytes.Repeat([]byte("x"), 200)})

	frames, err := a.Feed(wire[:100])
	if err != nil || len(frames) != 0 {
		t.Fatalf("Feed: got %d frames, %v", len(frames), err)
	}
	if a.Buffered() != 100 {
		t.Errorf("Buffered: got %d, want 100", a.Buffered())
	}

	frames, err = a.Feed(wire[100:])
	if err != nil || len(frames) != 1 {
		t.Fatalf("Feed: got %d frames, %v", len(frames), err)
	}
}

func TestFrameAccumulator_Errors(t *testing.T) {
	a := NewFrameAccumulator(10)
	if _, err := a.Feed(packet.EncodeVarInt(11)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Feed oversized: got %v, want ErrFrameTooLarge", err)
	}

	a = NewFrameAccumulator(DefaultMaxFrameLen)
	if _, err := a.Feed([]byte{0x80, 0x80, 0x80}); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if _, err := a.Feed([]byte{0x80, 0x80}); !errors.Is(err, packet.ErrMalformedVarInt) {
		t.Errorf("Feed malformed: got %v, want ErrMalformedVarInt", err)
	}
}
