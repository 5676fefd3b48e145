// Package resolve turns a server address into the dial addresses to try.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/gstoney/mcclient"
)

var ErrNoAddress = errors.New("no address found")

// Resolver returns candidate host:port addresses, best first.
type Resolver interface {
	Resolve(ctx context.Context, addr string) ([]string, error)
}

// Direct uses the address as given, adding the default port if missing.
type Direct struct{}

func (Direct) Resolve(_ context.Context, addr string) ([]string, error) {
	host, port, ok := splitPort(addr)
	if host == "" {
		return nil, fmt.Errorf("%w: empty host in %q", ErrNoAddress, addr)
	}
	if !ok {
		port = strconv.Itoa(mcclient.DefaultPort)
	}
	return []string{net.JoinHostPort(host, port)}, nil
}

func splitPort(addr string) (host, port string, ok bool) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.Trim(addr, "[]"), "", false
	}
	return host, port, true
}

// SRV looks up _minecraft._tcp records for addresses without a port. The
// host on the default port is always the last candidate.
type SRV struct {
	// LookupSRV defaults to net.DefaultResolver.LookupSRV.
	LookupSRV func(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

func (r SRV) Resolve(ctx context.Context, addr string) ([]string, error) {
	if _, _, ok := splitPort(addr); ok {
		return Direct{}.Resolve(ctx, addr)
	}
	fallback, err := Direct{}.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	lookup := r.LookupSRV
	if lookup == nil {
		lookup = net.DefaultResolver.LookupSRV
	}
	_, records, err := lookup(ctx, "minecraft", "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// No record, or a lookup failure: the plain address may still work.
		return fallback, nil
	}

	addrs := make([]string, 0, len(records)+1)
	for _, rec := range records {
		target := strings.TrimSuffix(rec.Target, ".")
		if target == "" {
			continue
		}
		addrs = appendUnique(addrs, net.JoinHostPort(target, strconv.Itoa(int(rec.Port))))
	}
	return appendUnique(addrs, fallback[0]), nil
}

func appendUnique(addrs []string, addr string) []string {
	for _, a := range addrs {
		if a == addr {
			return addrs
		}
	}
	return append(addrs, addr)
}
