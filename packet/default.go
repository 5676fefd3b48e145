package packet

// DefaultRegistry knows the handshake, status, login and a handful of play
// packets for the protocol versions this module has been tested against.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	// Later versions add a configuration state between login and play.
	all := Between(V1_8, V1_20_1)

	r.Register(all, Handshaking, Serverbound, 0x00, KindHandshake, func() Packet { return &HandshakePacket{} })

	r.Register(all, Status, Serverbound, 0x00, KindStatusRequest, func() Packet { return &StatusReqPacket{} })
	r.Register(all, Status, Serverbound, 0x01, KindPingRequest, func() Packet { return &PingReqPacket{} })
	r.Register(all, Status, Clientbound, 0x00, KindStatusResponse, func() Packet { return &StatusRespPacket{} })
	r.Register(all, Status, Clientbound, 0x01, KindPongResponse, func() Packet { return &PongRespPacket{} })

	r.Register(all, Login, Serverbound, 0x00, KindLoginStart, func() Packet { return &LoginStart{} })
	r.Register(all, Login, Serverbound, 0x01, KindEncryptionResponse, func() Packet { return &EncryptionResponse{} })
	r.Register(all, Login, Clientbound, 0x00, KindLoginDisconnect, func() Packet { return &LoginDisconnect{} })
	r.Register(all, Login, Clientbound, 0x01, KindEncryptionRequest, func() Packet { return &EncryptionRequest{} })
	r.Register(all, Login, Clientbound, 0x02, KindLoginSuccess, func() Packet { return &LoginSuccess{} })
	r.Register(all, Login, Clientbound, 0x03, KindSetCompression, func() Packet { return &SetCompression{} })

	for _, p := range playRoutes {
		if p.keepAlive >= 0 {
			r.Register(p.versions, Play, Clientbound, p.keepAlive, KindKeepAlive, func() Packet { return &KeepAlive{} })
		}
		if p.disconnect >= 0 {
			r.Register(p.versions, Play, Clientbound, p.disconnect, KindDisconnect, func() Packet { return &Disconnect{} })
		}
		if p.keepAliveResponse >= 0 {
			r.Register(p.versions, Play, Serverbound, p.keepAliveResponse, KindKeepAliveResponse, func() Packet { return &KeepAliveResponse{} })
		}
		if p.chat >= 0 {
			r.Register(p.versions, Play, Serverbound, p.chat, KindChatMessage, func() Packet { return &ChatMessage{} })
		}
	}

	return r
}

// -1 means the packet has no route in that range.
var playRoutes = []struct {
	versions          VersionRange
	keepAlive         int32
	disconnect        int32
	keepAliveResponse int32
	chat              int32
}{
	{Only(V1_8), 0x00, 0x40, 0x00, 0x01},
	{Only(V1_12_2), 0x1F, 0x1A, 0x0B, 0x02},
	{Between(V1_16_5, V1_20_1-1), 0x1F, 0x19, 0x10, 0x03},
	{Only(V1_20_1), 0x23, 0x1A, 0x12, -1}, // chat is signed
}
