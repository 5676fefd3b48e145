package packet

import "io"

// KeepAlive ids were VarInts until 1.12.2 switched to Long.
type KeepAlive struct {
	ID int64
}

func (p KeepAlive) Kind() Kind {
	return KindKeepAlive
}

func (p KeepAlive) Encode(w io.Writer, v Version) error {
	return writeKeepAliveID(w, v, p.ID)
}

func (p *KeepAlive) Decode(r Reader, v Version) (err error) {
	p.ID, err = readKeepAliveID(r, v)
	return
}

// KeepAliveResponse echoes the id of a KeepAlive back to the server.
type KeepAliveResponse struct {
	ID int64
}

func (p KeepAliveResponse) Kind() Kind {
	return KindKeepAliveResponse
}

func (p KeepAliveResponse) Encode(w io.Writer, v Version) error {
	return writeKeepAliveID(w, v, p.ID)
}

func (p *KeepAliveResponse) Decode(r Reader, v Version) (err error) {
	p.ID, err = readKeepAliveID(r, v)
	return
}

func writeKeepAliveID(w io.Writer, v Version, id int64) error {
	if v < V1_12_2 {
		return WriteVarInt(w, int32(id))
	}
	return WriteLong(w, id)
}

func readKeepAliveID(r Reader, v Version) (int64, error) {
	if v < V1_12_2 {
		id, err := ReadVarInt(r)
		return int64(id), err
	}
	return ReadLong(r)
}

// @gen:r,w
type Disconnect struct {
	Reason string `field:"String"` // JSON Text Component
}

func (p Disconnect) Kind() Kind {
	return KindDisconnect
}

// ChatMessage is the plain serverbound chat packet. Versions that require
// signed chat have no route for it.
//
// @gen:r,w
type ChatMessage struct {
	Message string `field:"String"`
}

func (p ChatMessage) Kind() Kind {
	return KindChatMessage
}
