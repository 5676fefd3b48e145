package packet

import (
	"errors"
	"testing"
)

func TestDefaultRegistryRoutes(t *testing.T) {
	testCases := []struct {
		desc    string
		v       Version
		kind    Kind
		state   State
		dir     Direction
		id      int32
		wantErr error
	}{
		{desc: "Handshake", v: V1_20_1, kind: KindHandshake, state: Handshaking, dir: Serverbound, id: 0x00},
		{desc: "Ping", v: V1_8, kind: KindPingRequest, state: Status, dir: Serverbound, id: 0x01},
		{desc: "Pong", v: V1_20_1, kind: KindPongResponse, state: Status, dir: Clientbound, id: 0x01},
		{desc: "Encryption response", v: V1_12_2, kind: KindEncryptionResponse, state: Login, dir: Serverbound, id: 0x01},
		{desc: "Set compression", v: V1_16_5, kind: KindSetCompression, state: Login, dir: Clientbound, id: 0x03},
		{desc: "KeepAlive 1.8", v: V1_8, kind: KindKeepAlive, state: Play, dir: Clientbound, id: 0x00},
		{desc: "KeepAlive 1.12.2", v: V1_12_2, kind: KindKeepAlive, state: Play, dir: Clientbound, id: 0x1F},
		{desc: "KeepAlive 1.20.1", v: V1_20_1, kind: KindKeepAlive, state: Play, dir: Clientbound, id: 0x23},
		{desc: "Disconnect 1.8", v: V1_8, kind: KindDisconnect, state: Play, dir: Clientbound, id: 0x40},
		{desc: "Disconnect 1.16.5", v: V1_16_5, kind: KindDisconnect, state: Play, dir: Clientbound, id: 0x19},
		{desc: "KeepAlive response 1.16.5", v: V1_16_5, kind: KindKeepAliveResponse, state: Play, dir: Serverbound, id: 0x10},
		{desc: "Chat 1.12.2", v: V1_12_2, kind: KindChatMessage, state: Play, dir: Serverbound, id: 0x02},
		{desc: "Chat 1.20.1", v: V1_20_1, kind: KindChatMessage, wantErr: ErrUnsupportedInVersion},
		{desc: "Play before 1.8", v: 5, kind: KindKeepAlive, wantErr: ErrUnsupportedInVersion},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			route, err := DefaultRegistry.WireID(tC.v, tC.kind)
			if tC.wantErr != nil {
				if !errors.Is(err, tC.wantErr) {
					t.Fatalf("WireID expected error %v, got %v", tC.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("WireID failed: %v", err)
			}
			if route.State != tC.state || route.Direction != tC.dir || route.ID != tC.id {
				t.Errorf("WireID expected %s %s 0x%02X, got %s %s 0x%02X",
					tC.state, tC.dir, tC.id, route.State, route.Direction, route.ID)
			}

			f, err := DefaultRegistry.Decoder(tC.v, tC.state, tC.dir, tC.id)
			if err != nil {
				t.Fatalf("Decoder failed: %v", err)
			}
			if k := f().Kind(); k != tC.kind {
				t.Errorf("Decoder expected %v, got %v", tC.kind, k)
			}
		})
	}
}

func TestRegistryUnknownID(t *testing.T) {
	_, err := DefaultRegistry.Decoder(V1_20_1, Status, Clientbound, 0x7F)
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("Decoder expected %v, got %v", ErrUnknownPacket, err)
	}

	// Same id, wrong direction.
	_, err = DefaultRegistry.Decoder(V1_20_1, Login, Serverbound, 0x02)
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("Decoder expected %v, got %v", ErrUnknownPacket, err)
	}
}

func TestDefaultRegistryUnmodelledVersions(t *testing.T) {
	testCases := []struct {
		desc string
		v    Version
		kind Kind
	}{
		{desc: "play between 1.8 and 1.12.2", v: 110, kind: KindKeepAliveResponse},
		{desc: "play between 1.12.2 and 1.16.5", v: 500, kind: KindKeepAlive},
		{desc: "login after 1.20.1", v: V1_20_2, kind: KindLoginStart},
		{desc: "handshake after 1.20.1", v: V1_20_2, kind: KindHandshake},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			if _, err := DefaultRegistry.WireID(tC.v, tC.kind); !errors.Is(err, ErrUnsupportedInVersion) {
				t.Errorf("WireID(%d, %v) expected %v, got %v", tC.v, tC.kind, ErrUnsupportedInVersion, err)
			}
		})
	}

	if _, err := DefaultRegistry.Decoder(110, Play, Clientbound, 0x00); !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("Decoder(110) expected %v, got %v", ErrUnknownPacket, err)
	}
	if _, err := DefaultRegistry.Decoder(V1_16_5-1, Play, Clientbound, 0x1F); !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("Decoder(%d) expected %v, got %v", V1_16_5-1, ErrUnknownPacket, err)
	}
}

func expectPanic(t *testing.T, desc string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", desc)
		}
	}()
	fn()
}

func TestRegistryRegister(t *testing.T) {
	newKeepAlive := func() Packet { return &KeepAlive{} }

	r := NewRegistry()
	r.Register(Between(100, 199), Play, Clientbound, 0x10, KindKeepAlive, newKeepAlive)
	r.Register(Since(200), Play, Clientbound, 0x11, KindKeepAlive, newKeepAlive)

	expectPanic(t, "overlapping id", func() {
		r.Register(Only(150), Play, Clientbound, 0x10, KindDisconnect, func() Packet { return &Disconnect{} })
	})
	expectPanic(t, "overlapping kind", func() {
		r.Register(Only(250), Play, Clientbound, 0x30, KindKeepAlive, newKeepAlive)
	})
	expectPanic(t, "empty range", func() {
		r.Register(Between(10, 5), Play, Clientbound, 0x31, KindChatMessage, func() Packet { return &ChatMessage{} })
	})

	// Same id in a disjoint range is fine.
	r.Register(Since(200), Play, Clientbound, 0x10, KindDisconnect, func() Packet { return &Disconnect{} })

	route, err := r.WireID(199, KindKeepAlive)
	if err != nil || route.ID != 0x10 {
		t.Errorf("WireID(199) expected 0x10, got 0x%02X (%v)", route.ID, err)
	}
	route, err = r.WireID(200, KindKeepAlive)
	if err != nil || route.ID != 0x11 {
		t.Errorf("WireID(200) expected 0x11, got 0x%02X (%v)", route.ID, err)
	}

	r.Freeze()
	if !r.Frozen() {
		t.Fatal("Frozen expected true after Freeze")
	}
	expectPanic(t, "register after freeze", func() {
		r.Register(Only(1), Status, Clientbound, 0x00, KindStatusResponse, func() Packet { return &StatusRespPacket{} })
	})
}

func TestRegistryIDEncoding(t *testing.T) {
	r := NewRegistry()
	r.SetIDEncoding(Between(1, 4), ByteID)

	if e := r.IDEncoding(3); e != ByteID {
		t.Errorf("IDEncoding(3) expected %v, got %v", ByteID, e)
	}
	if e := r.IDEncoding(5); e != VarIntID {
		t.Errorf("IDEncoding(5) expected %v, got %v", VarIntID, e)
	}
}
