// Package probe decides whether a candidate address can currently reach the network.
package probe

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 2 * time.Second

// Method names accepted by New.
const (
	MethodUDP = "udp"
	MethodTCP = "tcp"
)

// Endpoint is the address and port probed for one candidate.
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// String renders the endpoint as [addr]:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Addr.String(), strconv.Itoa(int(e.Port)))
}

// AddrPort converts the endpoint to a netip.AddrPort.
func (e Endpoint) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(e.Addr, e.Port)
}

// Prober checks reachability of an endpoint.
// Implementations never return an error; any failure or timeout is false.
type Prober interface {
	IsReachable(ctx context.Context, ep Endpoint, timeout time.Duration) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, ep Endpoint, timeout time.Duration) bool

// IsReachable implements Prober.
func (f ProberFunc) IsReachable(ctx context.Context, ep Endpoint, timeout time.Duration) bool {
	return f(ctx, ep, timeout)
}

// dialer opens a connection; satisfied by *net.Dialer.
type dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// UDPProber performs a datagram connect to the endpoint. Success means the
// local stack has a route for the destination; no packet is exchanged, so the
// remote side is never contacted.
type UDPProber struct {
	dial dialer
}

// NewUDPProber creates a UDPProber.
func NewUDPProber() *UDPProber {
	return &UDPProber{dial: &net.Dialer{}}
}

// IsReachable implements Prober.
func (p *UDPProber) IsReachable(ctx context.Context, ep Endpoint, timeout time.Duration) bool {
	return dialProbe(ctx, p.dial, "udp6", ep, timeout)
}

// TCPProber completes a TCP handshake with the endpoint.
type TCPProber struct {
	dial dialer
}

// NewTCPProber creates a TCPProber.
func NewTCPProber() *TCPProber {
	return &TCPProber{dial: &net.Dialer{}}
}

// IsReachable implements Prober.
func (p *TCPProber) IsReachable(ctx context.Context, ep Endpoint, timeout time.Duration) bool {
	return dialProbe(ctx, p.dial, "tcp6", ep, timeout)
}

func dialProbe(ctx context.Context, d dialer, network string, ep Endpoint, timeout time.Duration) bool {
	if !ep.Addr.IsValid() {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := d.DialContext(ctx, network, ep.String())
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// New returns the prober for a method name. Unknown names fall back to UDP.
func New(method string) Prober {
	if method == MethodTCP {
		return NewTCPProber()
	}
	return NewUDPProber()
}
