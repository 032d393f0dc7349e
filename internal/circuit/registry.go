package circuit

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds one breaker per upstream name, created lazily on first use.
// Breaker cardinality is bounded by the number of configured registries, so
// entries are never evicted.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	opts     []Option
	logger   *slog.Logger
	metrics  *Metrics
}

type RegistryOption func(*Registry)

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithBreakerDefaults applies the given options to every breaker the
// registry creates.
func WithBreakerDefaults(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.opts = opts
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		breakers: make(map[string]*Breaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn under the breaker for upstream. A non-nil error from fn counts
// as a failure; callers must translate "valid call, no data" outcomes into a
// nil error before returning so they do not trip the breaker.
func (r *Registry) Do(ctx context.Context, upstream string, fn func(context.Context) error) error {
	b := r.breaker(upstream)

	trial, err := b.acquire()
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordRejected(upstream)
		}
		return err
	}

	callErr := fn(ctx)
	change := b.record(trial, callErr != nil)

	if change.Opened {
		if r.metrics != nil {
			r.metrics.RecordOpened(upstream)
		}
		if r.logger != nil {
			r.logger.WarnContext(ctx, "circuit opened",
				"upstream", upstream,
				"error", callErr,
				"log_type", "audit",
			)
		}
	}
	if change.Closed && r.logger != nil {
		r.logger.InfoContext(ctx, "circuit closed after successful trial", "upstream", upstream)
	}

	return callErr
}

// List returns snapshots of all breakers sorted by name (admin surface).
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		snaps = append(snaps, b.snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
	return snaps
}

// Reset forces the named breaker to CLOSED. Reports whether it existed.
func (r *Registry) Reset(upstream string) bool {
	r.mu.RLock()
	b := r.breakers[upstream]
	r.mu.RUnlock()
	if b == nil {
		return false
	}
	b.Reset()
	if r.logger != nil {
		r.logger.Info("circuit manually reset", "upstream", upstream, "log_type", "audit")
	}
	return true
}

func (r *Registry) breaker(upstream string) *Breaker {
	r.mu.RLock()
	b := r.breakers[upstream]
	r.mu.RUnlock()
	if b != nil {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b = r.breakers[upstream]; b != nil {
		return b
	}
	b = New(upstream, r.opts...)
	r.breakers[upstream] = b
	return b
}

// RetryIn extracts the retry hint from an OpenError, or zero.
func RetryIn(err error) time.Duration {
	if oe, ok := err.(*OpenError); ok {
		return oe.RetryIn
	}
	return 0
}
