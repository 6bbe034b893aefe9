// Package propagation checks whether an updated AAAA record is visible on a set of nameservers.
//
// The check is advisory. Its results are logged and counted but never feed
// back into the reconciliation state.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
)

// DefaultTimeout bounds a single nameserver query.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of querying one nameserver.
type Result struct {
	Nameserver string
	Visible    bool
	Answers    []netip.Addr
	Err        error
}

// exchanger sends one DNS message; satisfied by *dns.Client.
type exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// Checker queries nameservers for AAAA records.
type Checker struct {
	nameservers []string
	timeout     time.Duration
	client      exchanger
	logger      *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds each query.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChecker creates a Checker. Nameservers without a port use 53.
func NewChecker(nameservers []string, opts ...Option) *Checker {
	c := &Checker{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, ns := range nameservers {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			continue
		}
		c.nameservers = append(c.nameservers, withDefaultPort(ns))
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &dns.Client{Net: "udp", Timeout: c.timeout}
	}
	return c
}

func withDefaultPort(ns string) string {
	if _, _, err := net.SplitHostPort(ns); err == nil {
		return ns
	}
	return net.JoinHostPort(strings.Trim(ns, "[]"), "53")
}

// Enabled reports whether any nameserver is configured.
func (c *Checker) Enabled() bool {
	return c != nil && len(c.nameservers) > 0
}

// Nameservers returns the normalized nameserver addresses.
func (c *Checker) Nameservers() []string {
	return append([]string(nil), c.nameservers...)
}

// Check asks every nameserver for the AAAA records of name and reports
// whether want is among the answers.
func (c *Checker) Check(ctx context.Context, name string, want netip.Addr) []Result {
	results := make([]Result, 0, len(c.nameservers))
	for _, ns := range c.nameservers {
		r := c.query(ctx, ns, name, want)
		results = append(results, r)

		switch {
		case r.Err != nil:
			metrics.PropagationChecksTotal.WithLabelValues(ns, "error").Inc()
			c.logger.Warn("propagation check failed",
				slog.String("nameserver", ns),
				slog.String("name", name),
				slog.String("error", r.Err.Error()),
			)
		case r.Visible:
			metrics.PropagationChecksTotal.WithLabelValues(ns, "visible").Inc()
			c.logger.Info("record visible on nameserver",
				slog.String("nameserver", ns),
				slog.String("name", name),
				slog.String("content", want.String()),
			)
		default:
			metrics.PropagationChecksTotal.WithLabelValues(ns, "stale").Inc()
			c.logger.Info("record not yet visible on nameserver",
				slog.String("nameserver", ns),
				slog.String("name", name),
				slog.String("want", want.String()),
				slog.Any("answers", r.Answers),
			)
		}
	}
	return results
}

func (c *Checker) query(ctx context.Context, ns, name string, want netip.Addr) Result {
	res := Result{Nameserver: ns}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeAAAA)
	msg.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, msg, ns)
	if err != nil {
		res.Err = fmt.Errorf("dns query failed: %w", err)
		return res
	}
	if resp == nil {
		res.Err = errors.New("dns query returned no response")
		return res
	}

	// NXDOMAIN means the name is not published there yet
	if resp.Rcode == dns.RcodeNameError {
		return res
	}
	if resp.Rcode != dns.RcodeSuccess {
		res.Err = fmt.Errorf("dns query returned %s", dns.RcodeToString[resp.Rcode])
		return res
	}

	for _, rr := range resp.Answer {
		aaaa, ok := rr.(*dns.AAAA)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(aaaa.AAAA)
		if !ok {
			continue
		}
		addr = addr.Unmap()
		res.Answers = append(res.Answers, addr)
		if addr == want.Unmap() {
			res.Visible = true
		}
	}
	return res
}
