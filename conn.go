package mcclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gstoney/mcclient/packet"
)

const (
	DefaultPort    = 25565
	DefaultVersion = packet.V1_20_1

	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Intent is the next state requested in the handshake.
type Intent int32

const (
	IntentStatus = Intent(packet.IntentStatus)
	IntentLogin  = Intent(packet.IntentLogin)
)

func (i Intent) String() string {
	switch i {
	case IntentStatus:
		return "status"
	case IntentLogin:
		return "login"
	}
	return "Intent(" + strconv.Itoa(int(i)) + ")"
}

// Handler is invoked once per decoded inbound packet, in arrival order,
// from a goroutine dedicated to the connection. It may call Send and
// Disconnect but must not call Wait.
type Handler interface {
	HandlePacket(c *Conn, p packet.Packet)
}

type HandlerFunc func(c *Conn, p packet.Packet)

func (f HandlerFunc) HandlePacket(c *Conn, p packet.Packet) {
	f(c, p)
}

// SkipHandler may be implemented by a Handler to be told about inbound
// frames that were dropped. Skipped frames keep their place in the order.
type SkipHandler interface {
	HandleSkipped(c *Conn, err *SkippedPacketError)
}

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config configures a Conn. The zero value is usable.
type Config struct {
	// Version defaults to DefaultVersion.
	Version packet.Version
	// Registry defaults to packet.DefaultRegistry. It is frozen on Connect.
	Registry *packet.Registry

	Handler Handler
	Logger  *zap.Logger
	Tracer  *Tracer

	MaxFrameLen        int32
	MaxDecompressedLen int32

	DialTimeout time.Duration
	// ReadTimeout bounds each frame read and the wait for an encryption
	// response. Expiry fails the connection.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Sent in LoginStart when connecting with IntentLogin.
	Username   string
	PlayerUUID uuid.UUID

	// StatusPing makes a status query also measure latency with a ping.
	StatusPing bool

	Dial DialFunc
}

func (c Config) withDefaults() Config {
	if c.Version == 0 {
		c.Version = DefaultVersion
	}
	if c.Registry == nil {
		c.Registry = packet.DefaultRegistry
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.MaxFrameLen <= 0 {
		c.MaxFrameLen = DefaultMaxFrameLen
	}
	if c.MaxDecompressedLen <= 0 {
		c.MaxDecompressedLen = DefaultMaxDecompressedLen
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Dial == nil {
		c.Dial = (&net.Dialer{}).DialContext
	}
	return c
}

var connIDs atomic.Uint64

type outbound struct {
	kind    packet.Kind
	payload []byte
	secret  []byte // enable the cipher once payload is written
}

type inbound struct {
	p       packet.Packet
	skipped *SkippedPacketError
}

// Conn is a single client session. It is not reusable: once it has been
// connected, a new Conn is needed to connect again.
type Conn struct {
	cfg    Config
	log    *zap.Logger
	tracer *Tracer

	started atomic.Bool
	running atomic.Bool

	// stateMu serializes transitions.
	stateMu sync.Mutex
	state   atomic.Int32
	fault   error

	nc net.Conn
	tr *Transport

	out *queue[outbound]
	in  *queue[inbound]

	// encMu guards the encryption handshake flags. It is taken before stateMu.
	encMu       sync.Mutex
	encPending  bool
	encAnswered bool
	cipherReady chan struct{}

	workers    errgroup.Group
	closeOnce  sync.Once
	closing    chan struct{}
	dispatched chan struct{}
	done       chan struct{}
}

func New(cfg Config) *Conn {
	cfg = cfg.withDefaults()
	return &Conn{
		cfg:         cfg,
		log:         cfg.Logger.With(zap.Uint64("conn", connIDs.Add(1))),
		tracer:      cfg.Tracer,
		out:         newQueue[outbound](),
		in:          newQueue[inbound](),
		cipherReady: make(chan struct{}),
		closing:     make(chan struct{}),
		dispatched:  make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Dial creates a Conn and connects it.
func Dial(ctx context.Context, addr string, intent Intent, cfg Config) (*Conn, error) {
	c := New(cfg)
	if err := c.Connect(ctx, addr, intent); err != nil {
		return nil, err
	}
	return c, nil
}

func splitHostPort(addr string) (string, uint16, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && addrErr.Err == "missing port in address" {
			return addr, DefaultPort, nil
		}
		return "", 0, err
	}

	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", port, err)
	}
	return host, uint16(n), nil
}

// Connect dials addr, performs the handshake and starts the workers.
// With IntentStatus it then queues a status request (and a ping if
// configured); with IntentLogin it queues LoginStart.
//
// ctx bounds the dial only. Connect may be called once per Conn.
func (c *Conn) Connect(ctx context.Context, addr string, intent Intent) error {
	if intent != IntentStatus && intent != IntentLogin {
		return fmt.Errorf("mcclient: invalid intent %v", intent)
	}
	host, port, err := splitHostPort(addr)
	if err != nil {
		return err
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrConnectionUsed
	}

	c.cfg.Registry.Freeze()
	c.log = c.log.With(zap.String("addr", addr))
	c.setState(StateConnecting, nil)

	dialCtx := ctx
	if c.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.DialTimeout)
		defer cancel()
	}
	nc, err := c.cfg.Dial(dialCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return c.abort(fmt.Errorf("%w: dial %s: %w", ErrIOFault, addr, err))
	}
	c.nc = nc
	c.tr = NewTransport(nc, nc, TransportConfig{
		MaxPacketLen:       c.cfg.MaxFrameLen,
		MaxDecompressedLen: c.cfg.MaxDecompressedLen,
	})

	c.setState(StateHandshaking, nil)
	hs := &packet.HandshakePacket{
		ProtocolVersion: int32(c.cfg.Version),
		ServerAddr:      host,
		ServerPort:      port,
		RequestType:     int32(intent),
	}
	if err = c.writeSync(hs); err != nil {
		return c.abort(fmt.Errorf("%w: write handshake: %w", ErrIOFault, err))
	}

	next := StateStatus
	if intent == IntentLogin {
		next = StateLogin
	}
	c.setState(next, nil)

	c.running.Store(true)
	c.workers.Go(func() error { return c.stop(c.readLoop()) })
	c.workers.Go(func() error { return c.stop(c.writeLoop()) })
	go c.dispatch()
	go c.supervise()

	c.log.Debug("connected",
		zap.Stringer("intent", intent),
		zap.Stringer("version", c.cfg.Version))

	switch intent {
	case IntentStatus:
		if err = c.Send(&packet.StatusReqPacket{}); err == nil && c.cfg.StatusPing {
			err = c.Send(&packet.PingReqPacket{Timestamp: time.Now().UnixMilli()})
		}
	case IntentLogin:
		err = c.Send(&packet.LoginStart{Name: c.cfg.Username, PlayerUUID: c.cfg.PlayerUUID})
	}
	return err
}

// writeSync writes p directly, before the workers exist.
func (c *Conn) writeSync(p packet.Packet) error {
	route, payload, err := EncodePacket(c.cfg.Registry, c.cfg.Version, p)
	if err != nil {
		return err
	}
	if c.cfg.WriteTimeout > 0 {
		c.nc.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err = c.tr.Send(payload); err != nil {
		return err
	}
	c.tracer.sentPacket(route.Kind, len(payload))
	return nil
}

// abort fails a connection whose workers never started.
func (c *Conn) abort(err error) error {
	c.setState(StateFailed, err)
	if c.nc != nil {
		c.nc.Close()
	}
	c.log.Warn("connect failed", zap.Error(err))
	c.tracer.closed(err)
	close(c.done)
	return err
}

// Send queues p for transmission. Packets are written in the order Send
// was called.
//
// Send fails with ErrNotConnected if the connection is not in the state p
// belongs to, or if an encryption request is waiting for its response and
// p is not that response. It fails with packet.ErrUnsupportedInVersion if
// p has no route in the connection's version.
func (c *Conn) Send(p packet.Packet) error {
	if !c.running.Load() {
		return ErrNotConnected
	}

	route, payload, err := EncodePacket(c.cfg.Registry, c.cfg.Version, p)
	if err != nil {
		return err
	}
	if route.Direction != packet.Serverbound {
		return fmt.Errorf("mcclient: %v is not a serverbound packet", route.Kind)
	}
	ob := outbound{kind: route.Kind, payload: payload}

	c.encMu.Lock()
	defer c.encMu.Unlock()

	switch {
	case route.Kind == packet.KindEncryptionResponse:
		if !c.encPending {
			return fmt.Errorf("%w: no encryption request pending", ErrCipherMisuse)
		}
		secret := responseSecret(p)
		if len(secret) != SharedSecretLen {
			return fmt.Errorf("%w: shared secret must be %d bytes, got %d", ErrCipherMisuse, SharedSecretLen, len(secret))
		}
		ob.secret = append([]byte(nil), secret...)
	case c.encPending:
		return fmt.Errorf("%w: %v while an encryption response is outstanding", ErrNotConnected, route.Kind)
	}

	if err = c.enqueue(route, ob); err != nil {
		return err
	}
	if ob.secret != nil {
		c.encPending = false
		c.encAnswered = true
	}
	return nil
}

func responseSecret(p packet.Packet) []byte {
	if r, ok := p.(*packet.EncryptionResponse); ok {
		return r.Secret
	}
	return nil
}

// enqueue checks the route against the current state and queues ob
// without letting a transition slip in between.
func (c *Conn) enqueue(route packet.Route, ob outbound) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	st := c.State()
	if ps, ok := st.protocol(); !ok || ps != route.State {
		return fmt.Errorf("%w: cannot send %v in state %v", ErrNotConnected, route.Kind, st)
	}
	if !c.out.Push(ob) {
		return ErrNotConnected
	}
	return nil
}

// Disconnect closes the connection. Queued outbound packets that have not
// been written yet are dropped. It does not wait; use Wait or Done.
func (c *Conn) Disconnect() error {
	if !c.running.Load() {
		return ErrNotConnected
	}
	c.shutdown(nil, false)
	return nil
}

func (c *Conn) State() State {
	return State(c.state.Load())
}

func (c *Conn) Version() packet.Version {
	return c.cfg.Version
}

// Err returns the fault that failed the connection. After a clean close
// it may hold a note about a frame cut short by the peer.
func (c *Conn) Err() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.fault
}

// Done is closed once the workers have exited and every received packet
// has been handled.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until Done is closed and returns the fault if the
// connection failed.
func (c *Conn) Wait() error {
	<-c.done
	if c.State() == StateFailed {
		return c.Err()
	}
	return nil
}

func (c *Conn) setState(next State, fault error) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	cur := c.State()
	if cur == next {
		return nil
	}
	if !cur.canTransition(next) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, cur, next)
	}

	if next == StateHandshaking {
		c.fault = nil
	}
	if fault != nil {
		c.fault = fault
	}
	c.state.Store(int32(next))

	c.log.Debug("state changed", zap.Stringer("from", cur), zap.Stringer("to", next))
	c.tracer.stateChanged(cur, next)
	return nil
}

func (c *Conn) readLoop() error {
	for {
		select {
		case <-c.closing:
			return nil
		default:
		}

		if c.cfg.ReadTimeout > 0 {
			c.nc.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}
		frame, err := c.tr.Recv()

		ps, ok := c.State().protocol()
		if !ok {
			return nil
		}
		if errors.Is(err, ErrMalformedPayload) {
			c.skip(ps, -1, err)
			continue
		}
		if err != nil {
			return err
		}

		p, id, err := DecodePacket(c.cfg.Registry, c.cfg.Version, ps, packet.Clientbound, frame.Payload)
		if err != nil {
			c.skip(ps, id, err)
			continue
		}
		c.tracer.receivedPacket(p.Kind(), len(frame.Payload))

		if stop, err := c.receive(p); stop || err != nil {
			return err
		}
	}
}

// receive applies the effects p has on the connection, hands it to the
// dispatcher and reports whether reading must stop.
//
// Effects that change how the next frame is read take place before the
// packet is queued.
func (c *Conn) receive(p packet.Packet) (stop bool, err error) {
	switch p := p.(type) {
	case *packet.SetCompression:
		c.tr.SetCompression(p.Threshold)
		c.log.Debug("compression enabled", zap.Int32("threshold", p.Threshold))
		c.tracer.compressionEnabled(p.Threshold)

	case *packet.LoginSuccess:
		if err = c.setState(StatePlay, nil); err != nil {
			return true, err
		}

	case *packet.EncryptionRequest:
		c.encMu.Lock()
		dup := c.encPending || c.encAnswered
		c.encPending = true
		c.encMu.Unlock()
		if dup {
			return true, fmt.Errorf("%w: repeated encryption request", ErrCipherMisuse)
		}
	}

	c.in.Push(inbound{p: p})

	switch p.(type) {
	case *packet.StatusRespPacket:
		if c.cfg.StatusPing {
			return false, nil
		}
		c.shutdown(nil, false)
		return true, nil

	case *packet.PongRespPacket, *packet.LoginDisconnect, *packet.Disconnect:
		c.shutdown(nil, false)
		return true, nil

	case *packet.EncryptionRequest:
		// Nothing after the request can be read until the cipher is on.
		return c.awaitCipher()
	}
	return false, nil
}

func (c *Conn) awaitCipher() (bool, error) {
	var timeout <-chan time.Time
	if c.cfg.ReadTimeout > 0 {
		t := time.NewTimer(c.cfg.ReadTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-c.cipherReady:
		return false, nil
	case <-c.closing:
		return true, nil
	case <-timeout:
		return true, fmt.Errorf("%w: no encryption response within %v", ErrIOFault, c.cfg.ReadTimeout)
	}
}

func (c *Conn) skip(state packet.State, id int32, err error) {
	skipped := &SkippedPacketError{State: state, WireID: id, Err: err}
	c.log.Warn("skipped packet", zap.Error(skipped))
	c.tracer.skippedPacket(skipped)
	c.in.Push(inbound{skipped: skipped})
}

func (c *Conn) writeLoop() error {
	for {
		ob, ok := c.out.Pop()
		if !ok {
			return nil
		}
		select {
		case <-c.closing:
			return nil
		default:
		}

		if c.cfg.WriteTimeout > 0 {
			c.nc.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		}
		if err := c.tr.Send(ob.payload); err != nil {
			return err
		}
		c.tracer.sentPacket(ob.kind, len(ob.payload))

		if ob.secret != nil {
			if err := c.tr.EnableEncryption(ob.secret); err != nil {
				return err
			}
			close(c.cipherReady)
			c.log.Debug("encryption enabled")
			c.tracer.encryptionEnabled()
		}
	}
}

// stop is the exit path of both workers.
func (c *Conn) stop(err error) error {
	fault, fatal := c.classify(err)
	c.shutdown(fault, fatal)
	return fault
}

func (c *Conn) classify(err error) (fault error, fatal bool) {
	if err == nil {
		return nil, false
	}
	select {
	case <-c.closing:
		// Our own close unblocked the worker.
		return nil, false
	default:
	}

	switch {
	case errors.Is(err, ErrConnectionClosed):
		return nil, false
	case errors.Is(err, ErrShortRead):
		return err, false
	case isProtocolError(err), errors.Is(err, ErrIOFault):
		return err, true
	}
	return fmt.Errorf("%w: %w", ErrIOFault, err), true
}

func (c *Conn) shutdown(fault error, fatal bool) {
	c.closeOnce.Do(func() {
		if fatal {
			c.log.Warn("connection failed", zap.Error(fault))
			c.setState(StateFailed, fault)
		} else {
			if fault != nil {
				c.log.Warn("connection closed inside a frame", zap.Error(fault))
			}
			c.setState(StateDisconnecting, fault)
		}

		close(c.closing)
		c.out.Close()
		c.nc.Close()
	})
}

func (c *Conn) supervise() {
	err := c.workers.Wait()
	c.in.Close()
	<-c.dispatched

	if c.State() != StateFailed {
		c.setState(StateDisconnected, nil)
	}
	c.log.Debug("connection closed", zap.NamedError("fault", err))
	c.tracer.closed(c.Err())
	close(c.done)
}

func (c *Conn) dispatch() {
	defer close(c.dispatched)

	for {
		ev, ok := c.in.Pop()
		if !ok {
			return
		}
		c.deliver(ev)
	}
}

func (c *Conn) deliver(ev inbound) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("packet handler panicked", zap.Any("panic", r))
		}
	}()

	h := c.cfg.Handler
	if h == nil {
		return
	}
	if ev.skipped != nil {
		if sh, ok := h.(SkipHandler); ok {
			sh.HandleSkipped(c, ev.skipped)
		}
		return
	}
	h.HandlePacket(c, ev.p)
}
