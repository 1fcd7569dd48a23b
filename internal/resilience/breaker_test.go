package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestBreakers_OpensAfterTransientFailures(t *testing.T) {
	b := NewBreakers[int](BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	cb := b.Get("dashboard/agents")

	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (int, error) {
			return 0, NewTransientError(errors.New("503"), 503)
		})
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	_, err := cb.Execute(func() (int, error) {
		t.Error("should not run while open")
		return 0, nil
	})
	if !IsOpen(err) {
		t.Errorf("expected open-state rejection, got %v", err)
	}
}

func TestBreakers_PermanentErrorsDoNotTrip(t *testing.T) {
	b := NewBreakers[int](BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	cb := b.Get("dashboard/amendes")
	_, err := cb.Execute(func() (int, error) {
		return 0, errors.New("success=false")
	})
	if err == nil {
		t.Fatal("error should still be returned")
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("permanent errors must not open the circuit, got %s", cb.State())
	}
}

func TestBreakers_PerEndpoint(t *testing.T) {
	b := NewBreakers[int](DefaultBreakerConfig())
	if b.Get("a") != b.Get("a") {
		t.Error("expected the same breaker for the same endpoint")
	}
	if b.Get("a") == b.Get("b") {
		t.Error("expected distinct breakers per endpoint")
	}
	states := b.States()
	if len(states) != 2 || states["a"] != "closed" {
		t.Errorf("unexpected states %v", states)
	}
}
