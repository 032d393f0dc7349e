// Package circuit implements per-upstream failure isolation for registry
// calls. Each national registry gets its own breaker so an outage in one
// country never blocks lookups against the others.
package circuit

import (
	"fmt"
	"sync"
	"time"
)

// State is the breaker lifecycle state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// OpenError is returned when a call is rejected because the breaker is open.
// The pipeline treats it as a signal to serve a degraded result, never a 5xx.
type OpenError struct {
	Upstream string
	RetryIn  time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit open for upstream %s (retry in %s)", e.Upstream, e.RetryIn)
}

// Breaker tracks consecutive failures for one upstream.
//
// CLOSED: calls pass through; a success resets the failure count, reaching
// the failure threshold opens the circuit. OPEN: calls fail fast until the
// recovery timeout elapses, then the next call runs as a half-open trial.
// HALF_OPEN: exactly one in-flight trial; success closes, failure re-opens.
type Breaker struct {
	mu                  sync.Mutex
	name                string
	state               State
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool
	failureThreshold    int
	recoveryTimeout     time.Duration
	now                 func() time.Time
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		b.failureThreshold = n
	}
}

func WithRecoveryTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		b.recoveryTimeout = d
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		recoveryTimeout:  30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// acquire decides whether a call may proceed. It returns an OpenError when
// the circuit rejects the call, and reports whether the admitted call is a
// half-open trial whose outcome drives the next transition.
func (b *Breaker) acquire() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		elapsed := b.now().Sub(b.openedAt)
		if elapsed < b.recoveryTimeout {
			return false, &OpenError{Upstream: b.name, RetryIn: b.recoveryTimeout - elapsed}
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		return true, nil
	case StateHalfOpen:
		if b.trialInFlight {
			return false, &OpenError{Upstream: b.name, RetryIn: b.recoveryTimeout}
		}
		b.trialInFlight = true
		return true, nil
	}
	return false, nil
}

// record applies a call outcome to the breaker state.
func (b *Breaker) record(trial bool, failed bool) (change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false
		if failed {
			b.state = StateOpen
			b.openedAt = b.now()
			change.Opened = true
			return change
		}
		b.state = StateClosed
		b.consecutiveFailures = 0
		change.Closed = true
		return change
	}

	if b.state != StateClosed {
		return change
	}
	if failed {
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			change.Opened = true
		}
		return change
	}
	b.consecutiveFailures = 0
	return change
}

// Reset forces the breaker to CLOSED with zero counters (manual recovery).
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.trialInFlight = false
	b.openedAt = time.Time{}
}

// StateChange reports a breaker transition caused by a recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Snapshot is the read-only admin view of one breaker.
type Snapshot struct {
	Name                string     `json:"name"`
	State               State      `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
	FailureThreshold    int        `json:"failure_threshold"`
	RecoveryTimeout     string     `json:"recovery_timeout"`
}

func (b *Breaker) snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Name:                b.name,
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		FailureThreshold:    b.failureThreshold,
		RecoveryTimeout:     b.recoveryTimeout.String(),
	}
	if b.state == StateOpen {
		openedAt := b.openedAt
		snap.OpenedAt = &openedAt
	}
	return snap
}
