package packet

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrUnknownPacket        = errors.New("unknown packet id")
	ErrUnsupportedInVersion = errors.New("packet kind not supported in protocol version")
)

// IDEncoding selects how the packet id is written at the start of a payload.
type IDEncoding uint8

const (
	VarIntID IDEncoding = iota
	ByteID
)

func (e IDEncoding) String() string {
	if e == ByteID {
		return "byte"
	}
	return "varint"
}

// Route is everything needed to put a packet kind on the wire for one
// protocol version.
type Route struct {
	State     State
	Direction Direction
	ID        int32
	Kind      Kind
	New       Factory
}

type routeKey struct {
	state State
	dir   Direction
	id    int32
}

type registration struct {
	versions VersionRange
	route    Route
}

type encodingRange struct {
	versions VersionRange
	enc      IDEncoding
}

// Registry maps (version, state, direction, wire id) to packet factories
// and packet kinds back to their per-version routes.
//
// Registration is expected to happen during program initialization.
// Once frozen, a Registry is read-only and safe for concurrent lookups.
type Registry struct {
	byID      map[routeKey][]registration
	byKind    map[Kind][]registration
	encodings []encodingRange
	frozen    atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[routeKey][]registration),
		byKind: make(map[Kind][]registration),
	}
}

// Register binds kind to wire id for every version in vr.
// It panics if the registry is frozen or if the registration overlaps an
// existing one for the same id or the same kind.
func (r *Registry) Register(vr VersionRange, state State, dir Direction, id int32, kind Kind, f Factory) {
	if r.frozen.Load() {
		panic("packet: Register called on frozen registry")
	}
	if vr.Min > vr.Max {
		panic(fmt.Sprintf("packet: empty version range %v for %v", vr, kind))
	}

	key := routeKey{state, dir, id}
	for _, reg := range r.byID[key] {
		if reg.versions.Overlaps(vr) {
			panic(fmt.Sprintf("packet: %s %s id 0x%02X already bound to %v in %v",
				state, dir, id, reg.route.Kind, reg.versions))
		}
	}
	for _, reg := range r.byKind[kind] {
		if reg.versions.Overlaps(vr) {
			panic(fmt.Sprintf("packet: %v already registered in %v", kind, reg.versions))
		}
	}

	reg := registration{
		versions: vr,
		route: Route{
			State:     state,
			Direction: dir,
			ID:        id,
			Kind:      kind,
			New:       f,
		},
	}
	r.byID[key] = append(r.byID[key], reg)
	r.byKind[kind] = append(r.byKind[kind], reg)
}

// SetIDEncoding overrides the id encoding for the versions in vr.
// Versions without an override use VarIntID.
func (r *Registry) SetIDEncoding(vr VersionRange, enc IDEncoding) {
	if r.frozen.Load() {
		panic("packet: SetIDEncoding called on frozen registry")
	}
	r.encodings = append(r.encodings, encodingRange{vr, enc})
}

func (r *Registry) IDEncoding(v Version) IDEncoding {
	for _, e := range r.encodings {
		if e.versions.Contains(v) {
			return e.enc
		}
	}
	return VarIntID
}

// Freeze makes the registry read-only. It is idempotent.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Decoder returns the factory for an inbound wire id.
func (r *Registry) Decoder(v Version, state State, dir Direction, id int32) (Factory, error) {
	for _, reg := range r.byID[routeKey{state, dir, id}] {
		if reg.versions.Contains(v) {
			return reg.route.New, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s 0x%02X in protocol %d", ErrUnknownPacket, state, dir, id, int32(v))
}

// WireID returns the route of kind in version v.
func (r *Registry) WireID(v Version, kind Kind) (Route, error) {
	for _, reg := range r.byKind[kind] {
		if reg.versions.Contains(v) {
			return reg.route, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %v in protocol %d", ErrUnsupportedInVersion, kind, int32(v))
}
