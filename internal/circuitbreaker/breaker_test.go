package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(max int, reset time.Duration) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(max, reset)
	cb.now = c.now
	return cb, c
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		cb.Call(func() error { return errBoom })
	}
	if cb.State() != StateClosed {
		t.Fatalf("Expected closed after 2 failures, got %s", cb.State())
	}

	// a success clears the run
	cb.Call(func() error { return nil })
	if cb.Failures() != 0 {
		t.Errorf("Expected failures reset, got %d", cb.Failures())
	}

	for i := 0; i < 3; i++ {
		cb.Call(func() error { return errBoom })
	}
	if cb.State() != StateOpen {
		t.Fatalf("Expected open after 3 failures, got %s", cb.State())
	}

	called := false
	err := cb.Call(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected function not to run while open")
	}
}

func TestHalfOpenProbe(t *testing.T) {
	cb, c := newTestBreaker(1, time.Minute)
	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.Call(func() error { return errBoom })
	c.advance(2 * time.Minute)

	// failed probe re-opens
	if err := cb.Call(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("Expected probe error, got %v", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("Expected open after failed probe, got %s", cb.State())
	}

	c.advance(2 * time.Minute)
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("Expected probe to succeed, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected closed after successful probe, got %s", cb.State())
	}

	expected := []string{"closed->open", "open->half-open", "half-open->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, transitions)
	}
	for i := range expected {
		if transitions[i] != expected[i] {
			t.Errorf("transition %d: expected %s, got %s", i, expected[i], transitions[i])
		}
	}
}

func TestHalfOpenAllowsOneProbe(t *testing.T) {
	cb, c := newTestBreaker(1, time.Second)
	cb.Call(func() error { return errBoom })
	c.advance(2 * time.Second)

	err := cb.Call(func() error {
		if inner := cb.Call(func() error { return nil }); !errors.Is(inner, ErrTooManyRequests) {
			t.Errorf("Expected ErrTooManyRequests during probe, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected probe to succeed, got %v", err)
	}
}

func TestReset(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Hour)
	cb.Call(func() error { return errBoom })
	cb.Reset()
	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("Expected closed with no failures, got %s/%d", cb.State(), cb.Failures())
	}
}

func TestReadyAfterResetTimeout(t *testing.T) {
	cb, c := newTestBreaker(1, time.Minute)
	if !cb.Ready() {
		t.Fatal("Expected closed breaker to be ready")
	}

	cb.Call(func() error { return errBoom })
	if cb.Ready() {
		t.Error("Expected open breaker not to be ready")
	}

	c.advance(30 * time.Second)
	if cb.Ready() {
		t.Error("Expected breaker not ready before reset timeout")
	}

	c.advance(31 * time.Second)
	if !cb.Ready() {
		t.Fatal("Expected breaker ready after reset timeout")
	}
	// Ready does not change state; the next call does
	if cb.State() != StateOpen {
		t.Errorf("Expected open, got %s", cb.State())
	}

	cb.Call(func() error {
		if cb.Ready() {
			t.Error("Expected not ready while a probe is running")
		}
		return nil
	})
	if !cb.Ready() || cb.State() != StateClosed {
		t.Errorf("Expected ready and closed after probe, got %s", cb.State())
	}
}
