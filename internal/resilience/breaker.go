package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig controls the per-endpoint circuit breakers.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens a circuit.
	FailureThreshold uint32
	// ResetTimeout is how long a circuit stays open before a trial request is let through.
	ResetTimeout time.Duration
	// Trips decides which errors count as failures. Nil counts transient ones.
	Trips func(err error) bool
}

// DefaultBreakerConfig opens after 5 consecutive failures for 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second}
}

// Breakers lazily creates one circuit breaker per backend endpoint.
type Breakers[T any] struct {
	cfg      BreakerConfig
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[T]
}

// NewBreakers returns an empty registry.
func NewBreakers[T any](cfg BreakerConfig) *Breakers[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breakers[T]{cfg: cfg, breakers: make(map[string]*gobreaker.CircuitBreaker[T])}
}

// Get returns the breaker for endpoint, creating it on first use.
func (b *Breakers[T]) Get(endpoint string) *gobreaker.CircuitBreaker[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[endpoint]; ok {
		return cb
	}
	threshold := b.cfg.FailureThreshold
	trips := b.cfg.Trips
	if trips == nil {
		trips = IsTransient
	}
	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Timeout:     b.cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !trips(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("backend circuit state change",
				zap.String("endpoint", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	b.breakers[endpoint] = cb
	return cb
}

// States returns a snapshot of every breaker's state name.
func (b *Breakers[T]) States() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.breakers))
	for name, cb := range b.breakers {
		out[name] = cb.State().String()
	}
	return out
}

// IsOpen reports whether err is a rejection by an open or probing circuit.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
