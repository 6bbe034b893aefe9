package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"gitlab.bluewillows.net/root/ddns6/internal/address"
	"gitlab.bluewillows.net/root/ddns6/internal/config"
	"gitlab.bluewillows.net/root/ddns6/internal/health"
	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
	"gitlab.bluewillows.net/root/ddns6/internal/probe"
	"gitlab.bluewillows.net/root/ddns6/internal/propagation"
	"gitlab.bluewillows.net/root/ddns6/internal/reconciler"
	"gitlab.bluewillows.net/root/ddns6/internal/selector"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
	"gitlab.bluewillows.net/root/ddns6/providers/cloudflare"
)

// runDaemon loads configuration and runs the reconciler, plus the health
// server when enabled, until SIGINT or SIGTERM.
func runDaemon(parent context.Context, configPath string) error {
	// Load configuration first (fail fast)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Info("ddns6 starting",
		append([]any{
			slog.String("version", Version),
			slog.String("build_date", BuildDate),
			slog.String("go_version", runtime.Version()),
		}, cfg.Summary()...)...,
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	return app.run(ctx)
}

// app holds the wired components of a running daemon.
type app struct {
	reconciler *reconciler.Reconciler
	health     *health.Server // nil when disabled
	listen     func() (net.Listener, error)
	logger     *slog.Logger
}

func newAddressSource(cfg config.InterfaceConfig, logger *slog.Logger) address.Source {
	if cfg.Source == config.SourceNative {
		return address.NewNative()
	}
	return address.NewIPRoute(
		address.WithQueryTimeout(cfg.QueryTimeout),
		address.WithLogger(logger),
	)
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	gateway, err := cloudflare.New(&cloudflare.Config{
		BaseURL:   cfg.Provider.BaseURL,
		ZoneID:    cfg.Provider.ZoneID,
		RecordID:  cfg.Provider.RecordID,
		AuthEmail: cfg.Provider.AuthEmail,
		AuthKey:   cfg.Provider.AuthKey,
		TTL:       cfg.Provider.TTL,
		Proxied:   cfg.Provider.Proxied,
		Comment:   cfg.Provider.Comment,
		Timeout:   cfg.Provider.Timeout,
	},
		cloudflare.WithProviderLogger(logger.With(slog.String("component", "cloudflare"))),
		cloudflare.WithRequestObserver(metrics.ObserveProviderRequest),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cloudflare provider: %w", err)
	}

	sel := selector.New(probe.New(cfg.Probe.Method), cfg.Probe.Port, cfg.Probe.Timeout,
		selector.WithLogger(logger),
	)

	opts := []reconciler.Option{reconciler.WithLogger(logger)}
	checker := propagation.NewChecker(cfg.Propagation.Nameservers,
		propagation.WithTimeout(cfg.Propagation.Timeout),
		propagation.WithLogger(logger),
	)
	if checker.Enabled() {
		opts = append(opts, reconciler.WithUpdateHook(propagationHook(checker)))
	}

	rec := reconciler.New(newAddressSource(cfg.Interface, logger), sel, gateway, reconciler.Config{
		Interface:          cfg.Interface.Name,
		RecordID:           gateway.RecordID(),
		PollInterval:       cfg.Reconciler.PollInterval,
		FailureBackoff:     cfg.Reconciler.FailureBackoff,
		NoCandidateBackoff: cfg.Reconciler.NoCandidateBackoff,
	}, opts...)

	a := &app{reconciler: rec, logger: logger}

	if cfg.Server.Port > 0 {
		a.health = health.New(cfg.Server.Port,
			health.WithLogger(logger),
			health.WithVersion(Version),
		)
		a.health.RegisterChecker("reconciler", rec.CheckReady)
		a.health.RegisterChecker("provider", gateway.Ping)
		a.health.RegisterDegradedChecker("reconciler", rec.CheckDegraded)
	}

	return a, nil
}

// propagationHook checks the written content on the configured nameservers.
func propagationHook(checker *propagation.Checker) reconciler.UpdateHook {
	return func(ctx context.Context, rec provider.ManagedRecord) {
		want, err := netip.ParseAddr(rec.Content)
		if err != nil {
			return
		}
		checker.Check(ctx, rec.Name, want)
	}
}

// run blocks until ctx is cancelled or the reconciler fails to bootstrap.
// Failing to bind the health port is a startup error; a health server that
// fails later is logged and the loop keeps running. A clean shutdown returns nil.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.health != nil {
		listen := a.listen
		if listen == nil {
			listen = a.health.Listen
		}
		ln, err := listen()
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := a.health.Serve(gctx, ln); err != nil {
				a.logger.Error("health server failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		err := a.reconciler.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("ddns6 stopped")
	return nil
}
