package packet

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

var playerUUID = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

// encoder is the write half of Packet; value packets implement it.
type encoder interface {
	Kind() Kind
	Encode(w io.Writer, v Version) error
}

func encode(t *testing.T, p encoder, v Version) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := p.Encode(buf, v); err != nil {
		t.Fatalf("%v Encode failed: %v", p.Kind(), err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, into Packet, v Version, ser []byte) {
	t.Helper()
	r := NewFrameReader(ser)
	if err := into.Decode(&r, v); err != nil {
		t.Fatalf("%v Decode failed: %v", into.Kind(), err)
	}
	if r.Remaining() != 0 {
		t.Errorf("%v Decode left %d bytes", into.Kind(), r.Remaining())
	}
}

func TestHandshakeEncode(t *testing.T) {
	p := HandshakePacket{
		ProtocolVersion: int32(V1_20_1),
		ServerAddr:      "localhost",
		ServerPort:      25565,
		RequestType:     IntentStatus,
	}
	want := []byte{0xfb, 0x05, 0x09, 'l', 'o', 'c', 'a', 'l', 'h', 'o', 's', 't', 0x63, 0xdd, 0x01}

	got := encode(t, p, V1_20_1)
	if !bytes.Equal(got, want) {
		t.Errorf("HandshakePacket.Encode expected %x, got %x", want, got)
	}

	var back HandshakePacket
	decode(t, &back, V1_20_1, got)
	if back != p {
		t.Errorf("HandshakePacket.Decode expected %+v, got %+v", p, back)
	}
}

func TestLoginStartLayouts(t *testing.T) {
	name := []byte{0x05, 'S', 't', 'e', 'v', 'e'}
	testCases := []struct {
		desc string
		v    Version
		tail []byte
	}{
		{desc: "1.8 name only", v: V1_8},
		{desc: "1.19 no signature data", v: V1_19, tail: []byte{0x00}},
		{desc: "1.19.1 signature flag and optional uuid", v: V1_19_1, tail: append([]byte{0x00, 0x01}, playerUUID[:]...)},
		{desc: "1.20.1 optional uuid", v: V1_20_1, tail: append([]byte{0x01}, playerUUID[:]...)},
		{desc: "1.20.2 uuid", v: V1_20_2, tail: playerUUID[:]},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			p := LoginStart{Name: "Steve", PlayerUUID: playerUUID}
			want := append(append([]byte(nil), name...), tC.tail...)

			got := encode(t, p, tC.v)
			if !bytes.Equal(got, want) {
				t.Fatalf("LoginStart.Encode expected %x, got %x", want, got)
			}

			var back LoginStart
			decode(t, &back, tC.v, got)
			if back.Name != p.Name {
				t.Errorf("LoginStart.Decode expected name %q, got %q", p.Name, back.Name)
			}
			if tC.v >= V1_19_1 && back.PlayerUUID != playerUUID {
				t.Errorf("LoginStart.Decode expected uuid %v, got %v", playerUUID, back.PlayerUUID)
			}
		})
	}
}

func TestEncryptionResponseLayouts(t *testing.T) {
	p := EncryptionResponse{
		SharedSecret: []byte{1, 2, 3},
		VerifyToken:  []byte{4, 5},
		Secret:       bytes.Repeat([]byte{9}, 16),
	}

	got := encode(t, p, V1_20_1)
	want := []byte{0x03, 1, 2, 3, 0x02, 4, 5}
	if !bytes.Equal(got, want) {
		t.Errorf("EncryptionResponse.Encode expected %x, got %x", want, got)
	}

	got = encode(t, p, V1_19)
	want = []byte{0x03, 1, 2, 3, 0x01, 0x02, 4, 5}
	if !bytes.Equal(got, want) {
		t.Errorf("EncryptionResponse.Encode(1.19) expected %x, got %x", want, got)
	}

	var back EncryptionResponse
	decode(t, &back, V1_19, got)
	if !bytes.Equal(back.SharedSecret, p.SharedSecret) || !bytes.Equal(back.VerifyToken, p.VerifyToken) {
		t.Errorf("EncryptionResponse.Decode expected %+v, got %+v", p, back)
	}
	if back.Secret != nil {
		t.Errorf("EncryptionResponse.Decode must not populate Secret, got %x", back.Secret)
	}
}

func TestLoginSuccessLayouts(t *testing.T) {
	p := LoginSuccess{
		UUID:     playerUUID,
		Username: "Steve",
		Properties: []GameProfileProperty{
			{Name: "textures", Value: "e30=", Signature: Optional[string]{Exists: true, Item: "sig"}},
		},
	}

	for _, v := range []Version{V1_8, V1_12_2, V1_16_5, V1_19, V1_20_1} {
		t.Run(v.String(), func(t *testing.T) {
			var back LoginSuccess
			decode(t, &back, v, encode(t, p, v))

			if back.UUID != p.UUID || back.Username != p.Username {
				t.Errorf("LoginSuccess.Decode expected %v %q, got %v %q", p.UUID, p.Username, back.UUID, back.Username)
			}
			if v >= V1_19 && !reflect.DeepEqual(back.Properties, p.Properties) {
				t.Errorf("LoginSuccess.Decode expected %+v, got %+v", p.Properties, back.Properties)
			}
			if v < V1_19 && back.Properties != nil {
				t.Errorf("LoginSuccess.Decode expected no properties, got %+v", back.Properties)
			}
		})
	}

	// Pre-1.16 servers send the hyphenated string form.
	ser := encode(t, p, V1_12_2)
	if ser[0] != 36 {
		t.Errorf("LoginSuccess.Encode(1.12.2) expected 36 byte UUID string, got length %d", ser[0])
	}
}

func TestKeepAliveLayouts(t *testing.T) {
	p := KeepAlive{ID: 300}

	if got, want := encode(t, p, V1_8), []byte{0xac, 0x02}; !bytes.Equal(got, want) {
		t.Errorf("KeepAlive.Encode(1.8) expected %x, got %x", want, got)
	}
	want := []byte{0, 0, 0, 0, 0, 0, 0x01, 0x2c}
	if got := encode(t, KeepAliveResponse(p), V1_12_2); !bytes.Equal(got, want) {
		t.Errorf("KeepAliveResponse.Encode(1.12.2) expected %x, got %x", want, got)
	}

	var back KeepAlive
	decode(t, &back, V1_20_1, want)
	if back != p {
		t.Errorf("KeepAlive.Decode expected %+v, got %+v", p, back)
	}
}

func TestEncryptionRequestDecode(t *testing.T) {
	ser := []byte{
		0x00,                   // server id ""
		0x03, 0xAA, 0xBB, 0xCC, // public key
		0x04, 1, 2, 3, 4,       // verify token
	}

	var p EncryptionRequest
	decode(t, &p, V1_20_1, ser)
	if p.ServerID != "" || !bytes.Equal(p.PublicKey, []byte{0xAA, 0xBB, 0xCC}) || !bytes.Equal(p.VerifyToken, []byte{1, 2, 3, 4}) {
		t.Errorf("EncryptionRequest.Decode got %+v", p)
	}
}
