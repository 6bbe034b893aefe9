// Package reconciler keeps a single AAAA record pointed at the first reachable
// global address of a network interface.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"gitlab.bluewillows.net/root/ddns6/internal/address"
	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// Config holds reconciler configuration options.
type Config struct {
	// Interface is the network interface whose addresses are published.
	Interface string

	// RecordID identifies the managed record at the provider.
	RecordID string

	// PollInterval is the wait after a cycle that found nothing to change.
	PollInterval time.Duration

	// FailureBackoff is the wait after a failed record write.
	FailureBackoff time.Duration

	// NoCandidateBackoff is the wait after a cycle without a reachable address.
	NoCandidateBackoff time.Duration
}

// DefaultConfig returns a Config with the default intervals.
func DefaultConfig() Config {
	return Config{
		PollInterval:       10 * time.Second,
		FailureBackoff:     15 * time.Second,
		NoCandidateBackoff: 30 * time.Second,
	}
}

// CandidateSelector picks the address to publish.
type CandidateSelector interface {
	Select(ctx context.Context, candidates []address.InterfaceAddress) (address.InterfaceAddress, bool)
}

// UpdateHook runs after every successful record write.
type UpdateHook func(ctx context.Context, record provider.ManagedRecord)

// Reconciler runs the polling loop. Cycles execute on a single goroutine;
// State may be called from any goroutine.
type Reconciler struct {
	source   address.Source
	selector CandidateSelector
	gateway  provider.Gateway
	config   Config
	logger   *slog.Logger
	onUpdate UpdateHook
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	state State
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithUpdateHook registers fn to run after each successful write.
func WithUpdateHook(fn UpdateHook) Option {
	return func(r *Reconciler) {
		r.onUpdate = fn
	}
}

// New creates a new Reconciler with the given dependencies.
// Zero intervals in cfg are replaced with the defaults.
func New(source address.Source, selector CandidateSelector, gateway provider.Gateway, cfg Config, opts ...Option) *Reconciler {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.NoCandidateBackoff <= 0 {
		cfg.NoCandidateBackoff = def.NoCandidateBackoff
	}

	r := &Reconciler{
		source:   source,
		selector: selector,
		gateway:  gateway,
		config:   cfg,
		logger:   slog.Default(),
		now:      time.Now,
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Bootstrap loads the managed record. It must succeed before RunCycle is used.
func (r *Reconciler) Bootstrap(ctx context.Context) error {
	rec, err := r.gateway.FetchRecord(ctx, r.config.RecordID)
	if err != nil {
		return &BootstrapError{RecordID: r.config.RecordID, Err: err}
	}
	if rec == nil {
		return &BootstrapError{RecordID: r.config.RecordID, Err: errors.New("provider returned no record")}
	}
	if rec.ID == "" {
		rec.ID = r.config.RecordID
	}

	if rec.Type != provider.RecordTypeAAAA {
		r.logger.Warn("managed record is not an AAAA record",
			slog.String("record_id", rec.ID),
			slog.String("type", string(rec.Type)),
		)
	}

	r.mu.Lock()
	r.state.Bootstrapped = true
	r.state.Record = *rec
	r.mu.Unlock()

	metrics.SetRecord(rec.Name, string(rec.Type), rec.Content)

	r.logger.Info("loaded managed record",
		slog.String("record_id", rec.ID),
		slog.String("name", rec.Name),
		slog.String("type", string(rec.Type)),
		slog.String("content", rec.Content),
	)
	return nil
}

// RunCycle performs one reconciliation cycle: discover, select, compare and
// write when the selected address differs from the published one.
func (r *Reconciler) RunCycle(ctx context.Context) Outcome {
	started := r.now()
	outcome := r.runCycle(ctx)
	outcome.Started = started
	outcome.Duration = r.now().Sub(started)

	r.record(outcome)
	return outcome
}

func (r *Reconciler) runCycle(ctx context.Context) Outcome {
	r.mu.RLock()
	bootstrapped := r.state.Bootstrapped
	rec := r.state.Record
	r.mu.RUnlock()

	if !bootstrapped {
		return Outcome{Kind: OutcomeTransientFailure, Err: errors.New("record not loaded")}
	}

	candidates, err := r.source.ListAddresses(ctx, r.config.Interface)
	if err != nil {
		metrics.CandidatesDiscovered.Set(0)
		r.logAddressError(err)
		return Outcome{Kind: OutcomeNoReachableCandidate, Err: err}
	}
	metrics.CandidatesDiscovered.Set(float64(len(candidates)))

	selected, ok := r.selector.Select(ctx, candidates)
	if !ok {
		r.logger.Warn("no reachable candidate",
			slog.String("interface", r.config.Interface),
			slog.Int("candidates", len(candidates)),
		)
		return Outcome{Kind: OutcomeNoReachableCandidate, Candidates: len(candidates)}
	}

	content := selected.Addr.String()
	if sameAddress(content, rec.Content) {
		r.logger.Debug("record up to date",
			slog.String("name", rec.Name),
			slog.String("content", rec.Content),
		)
		return Outcome{Kind: OutcomeNoChange, Content: rec.Content, Candidates: len(candidates)}
	}

	r.logger.Info("updating record",
		slog.String("name", rec.Name),
		slog.String("from", rec.Content),
		slog.String("to", content),
	)

	if err := r.gateway.UpdateRecord(ctx, rec.ID, rec.Type, rec.Name, content); err != nil {
		metrics.RecordUpdatesTotal.WithLabelValues("failure").Inc()
		r.logger.Error("record update failed",
			slog.String("name", rec.Name),
			slog.String("content", content),
			slog.String("error", err.Error()),
		)
		return Outcome{Kind: OutcomeTransientFailure, Content: content, Candidates: len(candidates), Err: err}
	}

	// Content only advances after the provider confirmed the write.
	r.mu.Lock()
	r.state.Record.Content = content
	updated := r.state.Record
	r.mu.Unlock()

	metrics.RecordUpdatesTotal.WithLabelValues("success").Inc()
	metrics.SetRecord(updated.Name, string(updated.Type), updated.Content)
	r.logger.Info("record updated",
		slog.String("name", updated.Name),
		slog.String("content", updated.Content),
	)

	if r.onUpdate != nil {
		r.onUpdate(ctx, updated)
	}

	return Outcome{Kind: OutcomeUpdated, Content: content, Candidates: len(candidates)}
}

func (r *Reconciler) logAddressError(err error) {
	kind := "other"
	switch {
	case address.IsNotFound(err):
		kind = "not_found"
	case address.IsParseError(err):
		kind = "parse"
	}
	metrics.AddressQueryErrorsTotal.WithLabelValues(kind).Inc()
	r.logger.Warn("querying interface addresses failed",
		slog.String("interface", r.config.Interface),
		slog.String("error", err.Error()),
	)
}

func (r *Reconciler) record(o Outcome) {
	r.mu.Lock()
	r.state.LastOutcome = &o
	r.state.LastCycle = o.Started
	r.state.Cycles++
	if o.Failed() {
		r.state.ConsecutiveFailures++
	} else {
		r.state.ConsecutiveFailures = 0
	}
	failures := r.state.ConsecutiveFailures
	r.mu.Unlock()

	metrics.CyclesTotal.WithLabelValues(string(o.Kind)).Inc()
	metrics.CycleDuration.Observe(o.Duration.Seconds())
	metrics.ConsecutiveFailures.Set(float64(failures))
}

// WaitFor returns the pause before the next cycle after an outcome.
func (r *Reconciler) WaitFor(o Outcome) time.Duration {
	switch o.Kind {
	case OutcomeUpdated:
		return 0
	case OutcomeNoChange:
		return r.config.PollInterval
	case OutcomeNoReachableCandidate:
		return r.config.NoCandidateBackoff
	default:
		return r.config.FailureBackoff
	}
}

// Run bootstraps and then cycles until ctx is cancelled.
//
// A cycle started before cancellation runs to completion; cancellation is
// observed between cycles. Run returns a *BootstrapError if the record cannot
// be loaded, and ctx.Err() on shutdown.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.Bootstrap(ctx); err != nil {
		return err
	}

	r.logger.Info("reconciler started",
		slog.String("interface", r.config.Interface),
		slog.Duration("poll_interval", r.config.PollInterval),
	)

	cycleCtx := context.WithoutCancel(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome := r.RunCycle(cycleCtx)
		wait := r.WaitFor(outcome)

		r.logger.Debug("cycle complete",
			slog.String("outcome", string(outcome.Kind)),
			slog.Duration("duration", outcome.Duration),
			slog.Duration("next_in", wait),
		)

		if err := r.sleep(ctx, wait); err != nil {
			r.logger.Info("reconciler stopped")
			return err
		}
	}
}

// State returns a snapshot of the loop state.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.clone()
}

// CheckReady implements a health checker: ready once the record is loaded.
func (r *Reconciler) CheckReady(_ context.Context) error {
	if !r.State().Bootstrapped {
		return errors.New("managed record not loaded yet")
	}
	return nil
}

// CheckDegraded implements a degraded checker: degraded while the last
// cycle ended without a reachable address or with a failed write.
func (r *Reconciler) CheckDegraded(_ context.Context) (bool, string) {
	st := r.State()
	if st.LastOutcome == nil || !st.LastOutcome.Failed() {
		return false, ""
	}
	msg := fmt.Sprintf("%s (%d consecutive)", st.LastOutcome.Kind, st.ConsecutiveFailures)
	if st.LastOutcome.Err != nil {
		msg += ": " + st.LastOutcome.Err.Error()
	}
	return true, msg
}

// sameAddress compares two record contents as IP addresses when both parse,
// so that differently formatted spellings of one address are equal.
func sameAddress(a, b string) bool {
	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)
	if errA == nil && errB == nil {
		return pa == pb
	}
	return a == b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
