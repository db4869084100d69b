package lockout

import "time"

const (
	defaultThreshold = 5
	defaultWindow    = 30 * time.Minute
)

// Config holds configuration for the failed-attempt lockout policy.
type Config struct {
	Enabled   bool
	Threshold int
	Window    time.Duration
}

// State carries the per-account counters the policy decides over.
// The caller owns persistence; the policy never touches storage.
type State struct {
	FailedCount int
	LockoutEnd  *time.Time
}

// Policy defines a public type used by authcore APIs.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	config Config
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) *Policy {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	return &Policy{config: cfg}
}

// IsLocked reports whether the account is inside an active lockout window.
// Expiry is lazy: an elapsed window reads as unlocked without any state change.
func (p *Policy) IsLocked(s State, now time.Time) bool {
	if !p.config.Enabled {
		return false
	}
	return s.LockoutEnd != nil && s.LockoutEnd.After(now)
}

// LockedUntil returns the end of the active lockout window, or the zero
// time when the account is not locked.
func (p *Policy) LockedUntil(s State, now time.Time) time.Time {
	if !p.IsLocked(s, now) {
		return time.Time{}
	}
	return *s.LockoutEnd
}

// RecordFailure returns the state after one more failed attempt and
// reports whether this failure crossed the threshold. Counting restarts
// from one when the previous window has already elapsed.
func (p *Policy) RecordFailure(s State, now time.Time) (State, bool) {
	if !p.config.Enabled {
		return s, false
	}

	if s.LockoutEnd != nil && !s.LockoutEnd.After(now) {
		s.FailedCount = 0
		s.LockoutEnd = nil
	}

	s.FailedCount++
	if s.FailedCount >= p.config.Threshold {
		end := now.Add(p.config.Window)
		s.LockoutEnd = &end
		return s, true
	}
	return s, false
}

// RecordSuccess returns the cleared state after a successful authentication.
func (p *Policy) RecordSuccess(s State) State {
	s.FailedCount = 0
	s.LockoutEnd = nil
	return s
}
