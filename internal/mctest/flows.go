package mctest

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gstoney/mcclient/packet"
)

// ServeStatus answers a status query with response, and a ping if the
// client sends one before closing.
func (s *Session) ServeStatus(response string) error {
	if _, err := s.Expect(packet.KindStatusRequest); err != nil {
		return err
	}
	if err := s.WritePacket(&packet.StatusRespPacket{Response: response}); err != nil {
		return err
	}

	p, err := s.ReadPacket()
	if err != nil {
		// No ping.
		return nil
	}
	ping, ok := p.(*packet.PingReqPacket)
	if !ok {
		return fmt.Errorf("expected ping, got %v", p.Kind())
	}
	return s.WritePacket(&packet.PongRespPacket{Timestamp: ping.Timestamp})
}

type LoginOptions struct {
	// Encrypt runs the encryption handshake with a throwaway RSA key.
	Encrypt bool
	// CompressionThreshold enables compression when not negative.
	CompressionThreshold int32
}

var ErrVerifyTokenMismatch = errors.New("verify token mismatch")

// AcceptLogin reads LoginStart, runs the optional encryption and
// compression steps and finishes with LoginSuccess, leaving the session
// in Play.
func (s *Session) AcceptLogin(opts LoginOptions) error {
	p, err := s.Expect(packet.KindLoginStart)
	if err != nil {
		return err
	}
	start := p.(*packet.LoginStart)
	s.Name = start.Name
	s.PlayerUUID = start.PlayerUUID
	if s.PlayerUUID == uuid.Nil {
		s.PlayerUUID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("OfflinePlayer:"+start.Name))
	}

	if opts.Encrypt {
		if err = s.encrypt(); err != nil {
			return err
		}
	}

	if opts.CompressionThreshold >= 0 {
		if err = s.WritePacket(&packet.SetCompression{Threshold: opts.CompressionThreshold}); err != nil {
			return err
		}
		s.Transport.SetCompression(opts.CompressionThreshold)
	}

	if err = s.WritePacket(&packet.LoginSuccess{UUID: s.PlayerUUID, Username: s.Name}); err != nil {
		return err
	}
	s.State = packet.Play
	return nil
}

func (s *Session) encrypt() error {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return err
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}
	token := make([]byte, 4)
	if _, err = rand.Read(token); err != nil {
		return err
	}

	if err = s.WritePacket(&packet.EncryptionRequest{PublicKey: pub, VerifyToken: token}); err != nil {
		return err
	}

	p, err := s.Expect(packet.KindEncryptionResponse)
	if err != nil {
		return err
	}
	resp := p.(*packet.EncryptionResponse)

	gotToken, err := rsa.DecryptPKCS1v15(nil, key, resp.VerifyToken)
	if err != nil {
		return fmt.Errorf("decrypt verify token: %w", err)
	}
	if !bytes.Equal(gotToken, token) {
		return ErrVerifyTokenMismatch
	}
	secret, err := rsa.DecryptPKCS1v15(nil, key, resp.SharedSecret)
	if err != nil {
		return fmt.Errorf("decrypt shared secret: %w", err)
	}
	return s.Transport.EnableEncryption(secret)
}
