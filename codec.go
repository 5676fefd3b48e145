package mcclient

import (
	"bytes"
	"fmt"

	"github.com/gstoney/mcclient/packet"
)

// EncodePacket resolves the wire id of p for version v and returns the
// frame payload: the id followed by the packet body.
func EncodePacket(reg *packet.Registry, v packet.Version, p packet.Packet) (packet.Route, []byte, error) {
	route, err := reg.WireID(v, p.Kind())
	if err != nil {
		return route, nil, err
	}

	var buf bytes.Buffer
	switch reg.IDEncoding(v) {
	case packet.ByteID:
		if route.ID < 0 || route.ID > 0xFF {
			return route, nil, fmt.Errorf("packet id 0x%X does not fit in a byte", route.ID)
		}
		buf.WriteByte(byte(route.ID))
	default:
		packet.WriteVarInt(&buf, route.ID)
	}

	if err = p.Encode(&buf, v); err != nil {
		return route, nil, fmt.Errorf("encode %v: %w", p.Kind(), err)
	}
	return route, buf.Bytes(), nil
}

// DecodePacket reads the wire id from payload, looks up its decoder and
// decodes the rest. The returned id is -1 if it could not be read.
// The body must consume the payload exactly.
func DecodePacket(reg *packet.Registry, v packet.Version, state packet.State, dir packet.Direction, payload []byte) (packet.Packet, int32, error) {
	r := packet.NewFrameReader(payload)

	var id int32
	var err error
	switch reg.IDEncoding(v) {
	case packet.ByteID:
		var b byte
		b, err = r.ReadByte()
		id = int32(b)
	default:
		id, err = packet.ReadVarInt(&r)
	}
	if err != nil {
		return nil, -1, fmt.Errorf("read packet id: %w", err)
	}

	newPacket, err := reg.Decoder(v, state, dir, id)
	if err != nil {
		return nil, id, err
	}

	p := newPacket()
	if err = p.Decode(&r, v); err != nil {
		return nil, id, fmt.Errorf("decode %v: %w", p.Kind(), err)
	}
	if r.Remaining() != 0 {
		return nil, id, fmt.Errorf("decode %v: %w: %d trailing bytes", p.Kind(), ErrNotExhausted, r.Remaining())
	}
	return p, id, nil
}
