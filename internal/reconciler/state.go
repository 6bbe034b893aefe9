package reconciler

import (
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// State is a snapshot of the reconciliation loop.
type State struct {
	Bootstrapped        bool
	Record              provider.ManagedRecord
	LastOutcome         *Outcome
	LastCycle           time.Time
	Cycles              uint64
	ConsecutiveFailures int
}

func (s State) clone() State {
	if s.LastOutcome != nil {
		o := *s.LastOutcome
		s.LastOutcome = &o
	}
	return s
}
