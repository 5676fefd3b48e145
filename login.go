package mcclient

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"

	"github.com/gstoney/mcclient/packet"
)

// Authenticator announces a join to the session service before the
// encryption response is sent. Offline servers need none.
type Authenticator interface {
	JoinServer(ctx context.Context, serverHash string) error
}

// NewEncryptionResponse encrypts secret and the request's verify token with
// the server's public key. secret is kept in the response so the cipher
// can be enabled once it is on the wire.
func NewEncryptionResponse(req *packet.EncryptionRequest, secret []byte) (*packet.EncryptionResponse, error) {
	if len(secret) != SharedSecretLen {
		return nil, fmt.Errorf("%w: shared secret must be %d bytes, got %d", ErrCipherMisuse, SharedSecretLen, len(secret))
	}

	key, err := x509.ParsePKIXPublicKey(req.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("parse server public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("server public key is not RSA")
	}

	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt shared secret: %w", err)
	}
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, req.VerifyToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt verify token: %w", err)
	}

	return &packet.EncryptionResponse{
		SharedSecret: encSecret,
		VerifyToken:  encToken,
		Secret:       append([]byte(nil), secret...),
	}, nil
}

var twoTo160 = new(big.Int).Lsh(big.NewInt(1), 160)

// ServerHash is the session server id: the SHA-1 of serverID, secret and
// publicKey read as a signed big-endian number and printed in hex.
func ServerHash(serverID string, secret, publicKey []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(secret)
	h.Write(publicKey)
	sum := h.Sum(nil)

	n := new(big.Int).SetBytes(sum)
	if sum[0]&0x80 != 0 {
		n.Sub(n, twoTo160)
	}
	return n.Text(16)
}

// RespondEncryption answers req with a fresh shared secret. auth may be nil.
// It is meant to be called from a Handler receiving the request.
func (c *Conn) RespondEncryption(ctx context.Context, req *packet.EncryptionRequest, auth Authenticator) error {
	secret := make([]byte, SharedSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generate shared secret: %w", err)
	}

	if auth != nil {
		if err := auth.JoinServer(ctx, ServerHash(req.ServerID, secret, req.PublicKey)); err != nil {
			return fmt.Errorf("join server: %w", err)
		}
	}

	resp, err := NewEncryptionResponse(req, secret)
	if err != nil {
		return err
	}
	return c.Send(resp)
}
