package packet

import (
	"io"

	"github.com/google/uuid"
)

// LoginStart layout changed three times: 1.19 added signature data,
// 1.19.1 appended an optional UUID, 1.19.3 dropped the signature data
// and 1.20.2 made the UUID mandatory.
type LoginStart struct {
	Name       string
	PlayerUUID uuid.UUID
}

func (p LoginStart) Kind() Kind {
	return KindLoginStart
}

func (p LoginStart) optionalUUID() Optional[uuid.UUID] {
	return Optional[uuid.UUID]{Exists: p.PlayerUUID != uuid.Nil, Item: p.PlayerUUID}
}

func (p LoginStart) Encode(w io.Writer, v Version) (err error) {
	if err = WriteString(w, p.Name); err != nil {
		return
	}

	switch {
	case v < V1_19:
		return nil
	case v < V1_19_1:
		return WriteBoolean(w, false) // no signature data
	case v < V1_19_3:
		if err = WriteBoolean(w, false); err != nil {
			return
		}
		return WriteOptional(w, p.optionalUUID(), WriteUUID)
	case v < V1_20_2:
		return WriteOptional(w, p.optionalUUID(), WriteUUID)
	default:
		return WriteUUID(w, p.PlayerUUID)
	}
}

func (p *LoginStart) Decode(r Reader, v Version) (err error) {
	if p.Name, err = ReadString(r); err != nil {
		return
	}

	if v >= V1_19 && v < V1_19_3 {
		if err = skipSignatureData(r); err != nil {
			return
		}
	}

	switch {
	case v < V1_19_1:
		return nil
	case v < V1_20_2:
		var id Optional[uuid.UUID]
		if id, err = ReadOptional(r, ReadUUID); err != nil {
			return
		}
		p.PlayerUUID = id.Item
		return nil
	default:
		p.PlayerUUID, err = ReadUUID(r)
		return
	}
}

func skipSignatureData(r Reader) error {
	present, err := ReadBoolean(r)
	if err != nil || !present {
		return err
	}
	if _, err = ReadLong(r); err != nil { // expiry
		return err
	}
	if _, err = ReadByteArray(r); err != nil { // public key
		return err
	}
	_, err = ReadByteArray(r) // signature
	return err
}

// EncryptionResponse carries the shared secret and verify token, both
// RSA-encrypted with the server's public key.
//
// Secret is the plaintext shared secret. It never goes on the wire; the
// transport uses it to enable the stream cipher right after this packet
// has been written.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte

	Secret []byte
}

func (p EncryptionResponse) Kind() Kind {
	return KindEncryptionResponse
}

func (p EncryptionResponse) Encode(w io.Writer, v Version) (err error) {
	if err = WriteByteArray(w, p.SharedSecret); err != nil {
		return
	}
	if v >= V1_19 && v < V1_19_3 {
		if err = WriteBoolean(w, true); err != nil { // token, not salt+signature
			return
		}
	}
	return WriteByteArray(w, p.VerifyToken)
}

func (p *EncryptionResponse) Decode(r Reader, v Version) (err error) {
	if p.SharedSecret, err = ReadByteArray(r); err != nil {
		return
	}
	if v >= V1_19 && v < V1_19_3 {
		var hasToken bool
		if hasToken, err = ReadBoolean(r); err != nil {
			return
		}
		if !hasToken {
			if _, err = ReadLong(r); err != nil { // salt
				return
			}
			_, err = ReadByteArray(r) // message signature
			return
		}
	}
	p.VerifyToken, err = ReadByteArray(r)
	return
}

// @gen:r,w
type LoginDisconnect struct {
	Reason string `field:"String"` // JSON Text Component
}

func (p LoginDisconnect) Kind() Kind {
	return KindLoginDisconnect
}

// @gen:r,w
type EncryptionRequest struct {
	ServerID    string `field:"String"`
	PublicKey   []byte `field:"ByteArray"`
	VerifyToken []byte `field:"ByteArray"`
}

func (p EncryptionRequest) Kind() Kind {
	return KindEncryptionRequest
}

type GameProfileProperty struct {
	Name      string
	Value     string
	Signature Optional[string]
}

func writeGameProfileProperty(w io.Writer, v GameProfileProperty) (err error) {
	if err = WriteString(w, v.Name); err != nil {
		return
	}
	if err = WriteString(w, v.Value); err != nil {
		return
	}
	err = WriteOptional(w, v.Signature, WriteString)
	return
}

func readGameProfileProperty(r Reader) (v GameProfileProperty, err error) {
	v.Name, err = ReadString(r)
	if err != nil {
		return
	}
	v.Value, err = ReadString(r)
	if err != nil {
		return
	}
	v.Signature, err = ReadOptional(r, ReadString)
	return
}

// LoginSuccess switched from a textual to a binary UUID in 1.16 and
// gained profile properties in 1.19.
type LoginSuccess struct {
	UUID       uuid.UUID
	Username   string
	Properties []GameProfileProperty
}

func (p LoginSuccess) Kind() Kind {
	return KindLoginSuccess
}

func (p LoginSuccess) Encode(w io.Writer, v Version) (err error) {
	if v < V1_16 {
		err = WriteUUIDString(w, p.UUID)
	} else {
		err = WriteUUID(w, p.UUID)
	}
	if err != nil {
		return
	}
	if err = WriteString(w, p.Username); err != nil {
		return
	}
	if v >= V1_19 {
		err = WritePrefixedArray(w, p.Properties, writeGameProfileProperty)
	}
	return
}

func (p *LoginSuccess) Decode(r Reader, v Version) (err error) {
	if v < V1_16 {
		p.UUID, err = ReadUUIDString(r)
	} else {
		p.UUID, err = ReadUUID(r)
	}
	if err != nil {
		return
	}
	if p.Username, err = ReadString(r); err != nil {
		return
	}
	if v >= V1_19 {
		p.Properties, err = ReadPrefixedArray(r, readGameProfileProperty)
	}
	return
}

// @gen:r,w
type SetCompression struct {
	Threshold int32 `field:"VarInt"`
}

func (p SetCompression) Kind() Kind {
	return KindSetCompression
}
