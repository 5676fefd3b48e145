package packet

import (
	"errors"
	"io"
)

// MaxVarIntLen is the number of bytes needed to encode any 32-bit value.
const MaxVarIntLen = 5

var ErrMalformedVarInt = errors.New("malformed VarInt: continuation bit set on 5th byte")

// AppendVarInt appends the VarInt encoding of v to b.
// Low-order 7-bit groups come first; every byte but the last has the continuation bit set.
func AppendVarInt(b []byte, v uint32) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func EncodeVarInt(v uint32) []byte {
	return AppendVarInt(make([]byte, 0, MaxVarIntLen), v)
}

func VarIntSize(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVarInt pulls bytes one at a time from r and stops at the terminating
// byte, so it never reads past the end of the value. This makes it safe to
// use directly on a live stream.
//
// io.EOF is returned only if the stream ends before the first byte;
// a stream ending mid-value yields io.ErrUnexpectedEOF.
func DecodeVarInt(r io.ByteReader) (uint32, error) {
	var v uint32

	for n := 0; n < MaxVarIntLen; n++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && n > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}

		v |= uint32(b&0x7F) << (7 * n)

		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, ErrMalformedVarInt
}

func WriteVarInt(w io.Writer, v int32) error {
	var buf [MaxVarIntLen]byte
	_, err := w.Write(AppendVarInt(buf[:0], uint32(v)))
	return err
}

func ReadVarInt(r io.ByteReader) (int32, error) {
	v, err := DecodeVarInt(r)
	return int32(v), err
}
