// Package mctest provides an in-process game server for exercising clients.
package mctest

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gstoney/mcclient"
	"github.com/gstoney/mcclient/packet"
)

// SessionHandler runs once the handshake of an accepted connection has been
// read. The connection is closed when it returns.
type SessionHandler func(s *Session) error

// A Server defines parameters for running a test server.
type Server struct {
	Version  packet.Version
	Registry *packet.Registry
	Handler  SessionHandler
	Logger   *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	errs     []error
	wg       sync.WaitGroup
}

// Listen starts serving on a loopback port and returns its address.
func (s *Server) Listen() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Serve(l)
	}()
	return l.Addr().String(), nil
}

// Serve accepts incoming connections on the Listener l,
// creating a new goroutine for each.
// The goroutines read the handshake packet and pass the session on to Handler.
// Serve returns nil once l is closed.
func (s *Server) Serve(l net.Listener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger().Warn("accept failed", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer c.Close()

			if err := s.serveConn(c); err != nil {
				s.logger().Warn("session failed", zap.Stringer("remote", c.RemoteAddr()), zap.Error(err))
				s.mu.Lock()
				s.errs = append(s.errs, err)
				s.mu.Unlock()
			}
		}()
	}
}

func (s *Server) serveConn(c net.Conn) error {
	session := newSession(c, s.version(), s.registry())

	p, err := session.ReadPacket()
	if err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}
	hs, ok := p.(*packet.HandshakePacket)
	if !ok {
		return fmt.Errorf("expected handshake, got %v", p.Kind())
	}

	session.ProtocolVersion = hs.ProtocolVersion
	session.ServerAddr = hs.ServerAddr
	session.ServerPort = hs.ServerPort
	session.Intent = hs.RequestType

	switch hs.RequestType {
	case packet.IntentStatus:
		session.State = packet.Status
	case packet.IntentLogin:
		session.State = packet.Login
	default:
		return fmt.Errorf("unknown handshake intent %d", hs.RequestType)
	}

	if s.Handler == nil {
		return nil
	}
	return s.Handler(session)
}

// Close stops accepting, waits for running sessions and returns the errors
// they reported.
func (s *Server) Close() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		l.Close()
	}
	s.wg.Wait()
	return s.Err()
}

func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

func (s *Server) version() packet.Version {
	if s.Version == 0 {
		return mcclient.DefaultVersion
	}
	return s.Version
}

func (s *Server) registry() *packet.Registry {
	if s.Registry == nil {
		return packet.DefaultRegistry
	}
	return s.Registry
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// A Session stores connection and states of a client.
type Session struct {
	LocalAddr  net.Addr
	RemoteAddr net.Addr

	State packet.State

	ProtocolVersion int32
	ServerAddr      string
	ServerPort      uint16
	Intent          int32
	Name            string
	PlayerUUID      uuid.UUID

	Conn      net.Conn
	Transport *mcclient.Transport

	version  packet.Version
	registry *packet.Registry
}

func newSession(c net.Conn, v packet.Version, reg *packet.Registry) *Session {
	return &Session{
		LocalAddr:  c.LocalAddr(),
		RemoteAddr: c.RemoteAddr(),
		State:      packet.Handshaking,
		Conn:       c,
		Transport:  mcclient.NewTransport(c, c, mcclient.TransportConfig{}),
		version:    v,
		registry:   reg,
	}
}

// ReadPacket reads the next serverbound packet of the session's state.
func (s *Session) ReadPacket() (packet.Packet, error) {
	frame, err := s.Transport.Recv()
	if err != nil {
		return nil, err
	}
	p, _, err := mcclient.DecodePacket(s.registry, s.version, s.State, packet.Serverbound, frame.Payload)
	return p, err
}

// Expect reads the next packet and checks that it is of kind k.
func (s *Session) Expect(k packet.Kind) (packet.Packet, error) {
	p, err := s.ReadPacket()
	if err != nil {
		return nil, fmt.Errorf("expecting %v: %w", k, err)
	}
	if p.Kind() != k {
		return nil, fmt.Errorf("expected %v, got %v", k, p.Kind())
	}
	return p, nil
}

func (s *Session) WritePacket(p packet.Packet) error {
	_, payload, err := mcclient.EncodePacket(s.registry, s.version, p)
	if err != nil {
		return err
	}
	return s.Transport.Send(payload)
}
