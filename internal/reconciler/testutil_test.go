package reconciler

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/ddns6/internal/address"
	"gitlab.bluewillows.net/root/ddns6/internal/probe"
	"gitlab.bluewillows.net/root/ddns6/internal/selector"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Mock address source
// =============================================================================

type mockSource struct {
	mu        sync.Mutex
	addresses []address.InterfaceAddress
	err       error
	calls     int
}

func newMockSource(addrs ...string) *mockSource {
	m := &mockSource{}
	m.Set(addrs...)
	return m
}

func (m *mockSource) Set(addrs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses = nil
	for _, a := range addrs {
		m.addresses = append(m.addresses, address.InterfaceAddress{
			Addr:      netip.MustParseAddr(a),
			PrefixLen: 64,
			Scope:     address.ScopeGlobal,
			Family:    address.FamilyInet6,
		})
	}
}

func (m *mockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockSource) ListAddresses(_ context.Context, _ string) ([]address.InterfaceAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]address.InterfaceAddress(nil), m.addresses...), nil
}

// =============================================================================
// Mock prober
// =============================================================================

type mockProber struct {
	mu        sync.Mutex
	reachable map[netip.Addr]bool
	probed    []netip.Addr
}

func newMockProber(reachable ...string) *mockProber {
	p := &mockProber{reachable: make(map[netip.Addr]bool)}
	for _, r := range reachable {
		p.reachable[netip.MustParseAddr(r)] = true
	}
	return p
}

func (p *mockProber) IsReachable(_ context.Context, ep probe.Endpoint, _ time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = append(p.probed, ep.Addr)
	return p.reachable[ep.Addr]
}

func (p *mockProber) Probes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.probed)
}

// =============================================================================
// Mock gateway
// =============================================================================

type updateCall struct {
	RecordID   string
	RecordType provider.RecordType
	Name       string
	Content    string
}

type mockGateway struct {
	mu        sync.Mutex
	record    *provider.ManagedRecord
	fetchErr  error
	updateErr error
	fetches   int
	updates   []updateCall
}

func newMockGateway(content string) *mockGateway {
	return &mockGateway{record: &provider.ManagedRecord{
		ID:       "rec-456",
		ZoneID:   "zone-123",
		ZoneName: "example.com",
		Name:     "vpn.example.com",
		Type:     provider.RecordTypeAAAA,
		Content:  content,
	}}
}

func (g *mockGateway) FetchRecord(_ context.Context, _ string) (*provider.ManagedRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	rec := *g.record
	return &rec, nil
}

func (g *mockGateway) UpdateRecord(_ context.Context, recordID string, recordType provider.RecordType, name, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, updateCall{RecordID: recordID, RecordType: recordType, Name: name, Content: content})
	if g.updateErr != nil {
		return g.updateErr
	}
	g.record.Content = content
	return nil
}

func (g *mockGateway) SetUpdateError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateErr = err
}

func (g *mockGateway) Updates() []updateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]updateCall(nil), g.updates...)
}

// =============================================================================
// Harness
// =============================================================================

type harness struct {
	source  *mockSource
	prober  *mockProber
	gateway *mockGateway
	r       *Reconciler
}

func newHarness(current string, candidates []string, reachable []string, opts ...Option) *harness {
	h := &harness{
		source:  newMockSource(candidates...),
		prober:  newMockProber(reachable...),
		gateway: newMockGateway(current),
	}
	sel := selector.New(h.prober, 51820, time.Second, selector.WithLogger(discardLogger()))
	cfg := Config{Interface: "eth0", RecordID: "rec-456"}
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	h.r = New(h.source, sel, h.gateway, cfg, opts...)
	return h
}
