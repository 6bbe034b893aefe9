// Package selector picks the address to publish from the interface's candidates.
package selector

import (
	"context"
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/ddns6/internal/address"
	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
	"gitlab.bluewillows.net/root/ddns6/internal/probe"
)

// SelectActive probes candidates in the given order and returns the first
// reachable one. Each candidate is probed exactly once; when none is reachable
// it returns false after len(candidates) probes.
func SelectActive(ctx context.Context, p probe.Prober, candidates []address.InterfaceAddress, port uint16, timeout time.Duration) (address.InterfaceAddress, bool) {
	return selectActive(ctx, p, candidates, port, timeout, nil)
}

func selectActive(ctx context.Context, p probe.Prober, candidates []address.InterfaceAddress, port uint16, timeout time.Duration, onProbe func(address.InterfaceAddress, bool)) (address.InterfaceAddress, bool) {
	for _, c := range candidates {
		ok := p.IsReachable(ctx, probe.Endpoint{Addr: c.Addr, Port: port}, timeout)
		if onProbe != nil {
			onProbe(c, ok)
		}
		if ok {
			return c, true
		}
	}
	return address.InterfaceAddress{}, false
}

// Selector runs SelectActive with fixed probe settings, logging and counting every probe.
type Selector struct {
	prober  probe.Prober
	port    uint16
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Selector.
func New(p probe.Prober, port uint16, timeout time.Duration, opts ...Option) *Selector {
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	s := &Selector{
		prober:  p,
		port:    port,
		timeout: timeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the first reachable candidate.
func (s *Selector) Select(ctx context.Context, candidates []address.InterfaceAddress) (address.InterfaceAddress, bool) {
	return selectActive(ctx, s.prober, candidates, s.port, s.timeout, func(c address.InterfaceAddress, ok bool) {
		metrics.ObserveProbe(ok)
		s.logger.Debug("probed candidate",
			slog.String("address", c.Addr.String()),
			slog.Int("port", int(s.port)),
			slog.Bool("reachable", ok),
		)
	})
}
