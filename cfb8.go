package mcclient

import "crypto/cipher"

// cfb8 is 8-bit cipher feedback mode. The standard library only ships
// full-block CFB, which the protocol does not use.
type cfb8 struct {
	b       cipher.Block
	sr      []byte // shift register
	out     []byte
	decrypt bool
}

func newCFB8(b cipher.Block, iv []byte, decrypt bool) *cfb8 {
	if len(iv) != b.BlockSize() {
		panic("mcclient: IV length must equal block size")
	}
	return &cfb8{
		b:       b,
		sr:      append([]byte(nil), iv...),
		out:     make([]byte, b.BlockSize()),
		decrypt: decrypt,
	}
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("mcclient: output smaller than input")
	}

	last := len(c.sr) - 1
	for i, in := range src {
		c.b.Encrypt(c.out, c.sr)
		o := in ^ c.out[0]
		dst[i] = o

		copy(c.sr, c.sr[1:])
		if c.decrypt {
			c.sr[last] = in
		} else {
			c.sr[last] = o
		}
	}
}

var _ cipher.Stream = (*cfb8)(nil)
