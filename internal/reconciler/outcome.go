package reconciler

import (
	"errors"
	"fmt"
	"time"
)

// OutcomeKind classifies a reconciliation cycle.
type OutcomeKind string

const (
	// OutcomeNoChange means the selected address is already published.
	OutcomeNoChange OutcomeKind = "no_change"
	// OutcomeUpdated means the record was rewritten with a new address.
	OutcomeUpdated OutcomeKind = "updated"
	// OutcomeNoReachableCandidate means no address on the interface passed the probe.
	OutcomeNoReachableCandidate OutcomeKind = "no_reachable_candidate"
	// OutcomeTransientFailure means the record write failed and will be retried.
	OutcomeTransientFailure OutcomeKind = "transient_failure"
)

// Outcome is the result of one cycle. It drives logging, metrics, health and
// the wait before the next cycle; it is never persisted.
type Outcome struct {
	Kind OutcomeKind

	// Content is the published address for no_change and updated,
	// and the attempted address for transient_failure.
	Content string

	// Candidates is the number of global addresses found on the interface.
	Candidates int

	// Err is set for transient_failure, and for no_reachable_candidate
	// when the interface could not be queried.
	Err error

	Started  time.Time
	Duration time.Duration
}

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%s (%s): %v", o.Kind, o.Content, o.Err)
	case o.Content != "":
		return fmt.Sprintf("%s (%s)", o.Kind, o.Content)
	default:
		return string(o.Kind)
	}
}

// Failed reports whether the cycle ended without the record matching a reachable address.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeNoReachableCandidate || o.Kind == OutcomeTransientFailure
}

// BootstrapError reports that the managed record could not be loaded at startup.
type BootstrapError struct {
	RecordID string
	Err      error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap: loading record %s: %v", e.RecordID, e.Err)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// IsBootstrapError returns true if err is or wraps a *BootstrapError.
func IsBootstrapError(err error) bool {
	var be *BootstrapError
	return errors.As(err, &be)
}
