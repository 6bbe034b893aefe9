// Package address discovers the IPv6 addresses currently assigned to a network interface.
package address

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
)

var (
	// ErrEmptyInterface is returned when no interface name was given.
	ErrEmptyInterface = errors.New("interface name is empty")

	// ErrInterfaceNotFound is returned when the interface does not exist.
	ErrInterfaceNotFound = errors.New("interface not found")
)

// Scope is the address scope reported by the OS.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeLink    Scope = "link"
	ScopeHost    Scope = "host"
	ScopeSite    Scope = "site"
	ScopeNowhere Scope = "nowhere"
)

// FamilyInet6 is the address family of IPv6 entries.
const FamilyInet6 = "inet6"

// InterfaceAddress is one address assigned to an interface.
type InterfaceAddress struct {
	Addr      netip.Addr
	PrefixLen int
	Scope     Scope
	Family    string
}

// String returns the address in CIDR notation.
func (a InterfaceAddress) String() string {
	return fmt.Sprintf("%s/%d", a.Addr, a.PrefixLen)
}

// Source lists the global IPv6 addresses of an interface in OS order.
//
// A nil error with an empty slice means the interface exists but currently
// has no global IPv6 address.
type Source interface {
	ListAddresses(ctx context.Context, iface string) ([]InterfaceAddress, error)
}

// ParseError reports output from the OS that could not be decoded.
type ParseError struct {
	Interface string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing addresses of %s: %v", e.Interface, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err reports a missing interface.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInterfaceNotFound)
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// keep reports whether an address is eligible for publication.
func keep(a InterfaceAddress) bool {
	return a.Family == FamilyInet6 && a.Scope == ScopeGlobal && a.Addr.Is6() && !a.Addr.Is4In6()
}
