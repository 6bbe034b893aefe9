package address

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os/exec"
	"strings"
	"time"
)

// DefaultQueryTimeout bounds a single `ip` invocation.
const DefaultQueryTimeout = 5 * time.Second

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// osCommandRunner implements CommandRunner using the real OS.
type osCommandRunner struct{}

func (osCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ipAddrInfo is one entry of addr_info in `ip -j addr` output.
type ipAddrInfo struct {
	Family    string `json:"family"`
	Local     string `json:"local"`
	PrefixLen int    `json:"prefixlen"`
	Scope     string `json:"scope"`
}

// ipLink is one interface in `ip -j addr` output.
type ipLink struct {
	IfName   string       `json:"ifname"`
	AddrInfo []ipAddrInfo `json:"addr_info"`
}

// IPRoute lists addresses by running `ip -6 -j addr show dev <iface>`.
type IPRoute struct {
	binary  string
	timeout time.Duration
	runner  CommandRunner
	logger  *slog.Logger
}

// IPRouteOption configures an IPRoute source.
type IPRouteOption func(*IPRoute)

// WithRunner replaces the command runner (useful for testing).
func WithRunner(r CommandRunner) IPRouteOption {
	return func(s *IPRoute) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithQueryTimeout bounds each invocation.
func WithQueryTimeout(d time.Duration) IPRouteOption {
	return func(s *IPRoute) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBinary overrides the path of the ip binary.
func WithBinary(path string) IPRouteOption {
	return func(s *IPRoute) {
		if path != "" {
			s.binary = path
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) IPRouteOption {
	return func(s *IPRoute) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewIPRoute creates an IPRoute source.
func NewIPRoute(opts ...IPRouteOption) *IPRoute {
	s := &IPRoute{
		binary:  "ip",
		timeout: DefaultQueryTimeout,
		runner:  osCommandRunner{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAddresses implements Source.
func (s *IPRoute) ListAddresses(ctx context.Context, iface string) ([]InterfaceAddress, error) {
	if iface == "" {
		return nil, ErrEmptyInterface
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug("querying interface addresses",
		slog.String("interface", iface),
		slog.String("binary", s.binary),
	)

	stdout, stderr, err := s.runner.Run(ctx, s.binary, "-6", "-j", "addr", "show", "dev", iface)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "Cannot find device") {
			return nil, fmt.Errorf("%w: %s", ErrInterfaceNotFound, iface)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("querying addresses of %s: timed out after %s", iface, s.timeout)
		}
		if msg != "" {
			return nil, fmt.Errorf("querying addresses of %s: %w: %s", iface, err, msg)
		}
		return nil, fmt.Errorf("querying addresses of %s: %w", iface, err)
	}

	return parseIPAddr(iface, stdout)
}

// parseIPAddr decodes `ip -j addr` output and returns the global inet6
// addresses of iface in the order they were reported.
func parseIPAddr(iface string, data []byte) ([]InterfaceAddress, error) {
	var links []ipLink
	if err := json.Unmarshal(bytes.TrimSpace(data), &links); err != nil {
		return nil, &ParseError{Interface: iface, Err: err}
	}
	// ip prints [] for an existing interface without IPv6 addresses; a
	// missing device is reported on stderr instead.
	if len(links) == 0 {
		return []InterfaceAddress{}, nil
	}

	link := links[0]
	for _, l := range links {
		if l.IfName == iface {
			link = l
			break
		}
	}

	out := make([]InterfaceAddress, 0, len(link.AddrInfo))
	for _, info := range link.AddrInfo {
		if info.Family != FamilyInet6 || Scope(info.Scope) != ScopeGlobal {
			continue
		}
		addr, err := netip.ParseAddr(info.Local)
		if err != nil {
			return nil, &ParseError{Interface: iface, Err: fmt.Errorf("address %q: %w", info.Local, err)}
		}
		a := InterfaceAddress{
			Addr:      addr.WithZone(""),
			PrefixLen: info.PrefixLen,
			Scope:     Scope(info.Scope),
			Family:    info.Family,
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
