package address

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// interfaceAddrs abstracts net.InterfaceByName for testing.
type interfaceAddrs func(name string) ([]net.Addr, error)

// Native lists addresses through the Go net package instead of the ip binary.
// Scope is derived from the address itself.
type Native struct {
	lookup interfaceAddrs
}

// NewNative creates a Native source.
func NewNative() *Native {
	return &Native{lookup: lookupInterfaceAddrs}
}

func lookupInterfaceAddrs(name string) ([]net.Addr, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return ifi.Addrs()
}

// ListAddresses implements Source.
func (n *Native) ListAddresses(ctx context.Context, iface string) ([]InterfaceAddress, error) {
	if iface == "" {
		return nil, ErrEmptyInterface
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addrs, err := n.lookup(iface)
	if err != nil {
		if isNoSuchInterface(err) {
			return nil, fmt.Errorf("%w: %s", ErrInterfaceNotFound, iface)
		}
		return nil, fmt.Errorf("querying addresses of %s: %w", iface, err)
	}

	out := make([]InterfaceAddress, 0, len(addrs))
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(ipnet.IP)
		if !ok || ipnet.IP.To4() != nil {
			continue
		}
		ones, _ := ipnet.Mask.Size()
		ia := InterfaceAddress{
			Addr:      addr,
			PrefixLen: ones,
			Scope:     classify(addr),
			Family:    FamilyInet6,
		}
		if keep(ia) {
			out = append(out, ia)
		}
	}
	return out, nil
}

// net reports a missing interface with an unexported error.
func isNoSuchInterface(err error) bool {
	return strings.Contains(err.Error(), "no such network interface")
}

// classify maps an address to the scope `ip` would report for it.
func classify(addr netip.Addr) Scope {
	switch {
	case addr.IsLoopback():
		return ScopeHost
	case addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast():
		return ScopeLink
	case addr.IsGlobalUnicast():
		return ScopeGlobal
	default:
		return ScopeNowhere
	}
}
