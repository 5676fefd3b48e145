//go:generate go run ../codegen/gen_packet_codec.go -- .
package packet

import (
	"io"
)

// Packet is a typed packet body. The wire id is not part of the body;
// it is resolved through a Registry for the negotiated Version.
type Packet interface {
	Kind() Kind
	Encode(w io.Writer, v Version) error
	Decode(r Reader, v Version) error
}

// Factory returns a zero packet ready to Decode into.
type Factory func() Packet

// State is the protocol phase a packet belongs to.
type State uint8

const (
	Handshaking State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "Handshaking"
	case Status:
		return "Status"
	case Login:
		return "Login"
	case Play:
		return "Play"
	}
	return "UnknownState"
}

type Direction uint8

const (
	Serverbound Direction = iota
	Clientbound
)

func (d Direction) String() string {
	if d == Serverbound {
		return "serverbound"
	}
	return "clientbound"
}

// Kind identifies a logical packet independently of its per-version wire id.
type Kind uint16

const (
	KindUnknown Kind = iota

	KindHandshake

	KindStatusRequest
	KindPingRequest
	KindStatusResponse
	KindPongResponse

	KindLoginStart
	KindEncryptionResponse
	KindLoginDisconnect
	KindEncryptionRequest
	KindLoginSuccess
	KindSetCompression

	KindKeepAlive
	KindKeepAliveResponse
	KindDisconnect
	KindChatMessage
)

var kindNames = [...]string{
	KindUnknown:            "Unknown",
	KindHandshake:          "Handshake",
	KindStatusRequest:      "StatusRequest",
	KindPingRequest:        "PingRequest",
	KindStatusResponse:     "StatusResponse",
	KindPongResponse:       "PongResponse",
	KindLoginStart:         "LoginStart",
	KindEncryptionResponse: "EncryptionResponse",
	KindLoginDisconnect:    "LoginDisconnect",
	KindEncryptionRequest:  "EncryptionRequest",
	KindLoginSuccess:       "LoginSuccess",
	KindSetCompression:     "SetCompression",
	KindKeepAlive:          "KeepAlive",
	KindKeepAliveResponse:  "KeepAliveResponse",
	KindDisconnect:         "Disconnect",
	KindChatMessage:        "ChatMessage",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Handshake next-state values.
const (
	IntentStatus int32 = 1
	IntentLogin  int32 = 2
)

// @gen:r,w
type HandshakePacket struct {
	ProtocolVersion int32  `field:"VarInt"`
	ServerAddr      string `field:"String"`
	ServerPort      uint16 `field:"UnsignedShort"`
	RequestType     int32  `field:"VarInt"`
}

func (p HandshakePacket) Kind() Kind {
	return KindHandshake
}
