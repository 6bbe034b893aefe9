package address

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
)

func cidr(t *testing.T, s string) *net.IPNet {
	t.Helper()
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q): %v", s, err)
	}
	n.IP = ip
	return n
}

func TestNative_ListAddresses(t *testing.T) {
	n := &Native{lookup: func(name string) ([]net.Addr, error) {
		if name != "eth0" {
			t.Errorf("unexpected interface %q", name)
		}
		return []net.Addr{
			cidr(t, "192.0.2.1/24"),
			cidr(t, "fe80::1/64"),
			cidr(t, "2001:db8::2/64"),
			cidr(t, "::1/128"),
			cidr(t, "2001:db8::1/128"),
		}, nil
	}}

	got, err := n.ListAddresses(context.Background(), "eth0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []InterfaceAddress{
		{Addr: netip.MustParseAddr("2001:db8::2"), PrefixLen: 64, Scope: ScopeGlobal, Family: FamilyInet6},
		{Addr: netip.MustParseAddr("2001:db8::1"), PrefixLen: 128, Scope: ScopeGlobal, Family: FamilyInet6},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d addresses, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("address %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNative_Errors(t *testing.T) {
	if _, err := NewNative().ListAddresses(context.Background(), ""); !errors.Is(err, ErrEmptyInterface) {
		t.Errorf("expected ErrEmptyInterface, got %v", err)
	}

	missing := &Native{lookup: func(string) ([]net.Addr, error) {
		return nil, &net.OpError{Op: "route", Net: "ip+net", Err: errors.New("no such network interface")}
	}}
	if _, err := missing.ListAddresses(context.Background(), "wg9"); !IsNotFound(err) {
		t.Errorf("expected ErrInterfaceNotFound, got %v", err)
	}

	other := &Native{lookup: func(string) ([]net.Addr, error) { return nil, errors.New("netlink failure") }}
	_, err := other.ListAddresses(context.Background(), "eth0")
	if err == nil || IsNotFound(err) {
		t.Errorf("expected generic error, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		addr string
		want Scope
	}{
		{"2001:db8::1", ScopeGlobal},
		{"fe80::1", ScopeLink},
		{"::1", ScopeHost},
		{"::", ScopeNowhere},
	}
	for _, tt := range tests {
		if got := classify(netip.MustParseAddr(tt.addr)); got != tt.want {
			t.Errorf("classify(%s) = %s, want %s", tt.addr, got, tt.want)
		}
	}
}
