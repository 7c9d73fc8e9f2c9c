package throttle

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAllowedWithNoFailures(t *testing.T) {
	p := Policy{Factor: 1}

	d := p.Allowed(State{}, t0)
	if !d.Allowed {
		t.Fatal("fresh state must be allowed")
	}
}

func TestLockoutEscalation(t *testing.T) {
	p := Policy{Factor: 1}
	var st State

	tests := []struct {
		failures uint32
		delay    time.Duration
	}{
		{failures: 1, delay: 1 * time.Second},
		{failures: 2, delay: 2 * time.Second},
		{failures: 3, delay: 4 * time.Second},
		{failures: 4, delay: 8 * time.Second},
	}

	for _, tc := range tests {
		p.Increment(&st, t0)
		if st.FailureCount != tc.failures {
			t.Fatalf("failure count = %d, want %d", st.FailureCount, tc.failures)
		}

		// Just inside the window: locked.
		d := p.Allowed(st, t0.Add(tc.delay-time.Millisecond))
		if d.Allowed {
			t.Fatalf("after %d failures, attempt inside %v window was allowed", tc.failures, tc.delay)
		}
		if d.Reason != ReasonTooManyFailedAttempts {
			t.Fatalf("reason = %q", d.Reason)
		}
		if want := t0.Add(tc.delay); !d.LockedUntil.Equal(want) {
			t.Fatalf("locked until %v, want %v", d.LockedUntil, want)
		}

		// At the boundary: allowed again.
		if d := p.Allowed(st, t0.Add(tc.delay)); !d.Allowed {
			t.Fatalf("after %d failures, attempt at window end was declined", tc.failures)
		}
	}
}

func TestFactorScalesLockout(t *testing.T) {
	p := Policy{Factor: 10}
	var st State
	p.Increment(&st, t0)

	if d := p.Allowed(st, t0.Add(9*time.Second)); d.Allowed {
		t.Fatal("factor 10 lockout must hold for 10s after the first failure")
	}
	if d := p.Allowed(st, t0.Add(10*time.Second)); !d.Allowed {
		t.Fatal("factor 10 lockout must expire after 10s")
	}
}

func TestFactorZeroDisablesThrottling(t *testing.T) {
	p := Policy{Factor: 0}
	var st State

	p.Increment(&st, t0)
	if st.FailureCount != 0 {
		t.Fatal("disabled policy must not count failures")
	}
	if d := p.Allowed(State{FailureCount: 99, FailureTimestamp: t0}, t0); !d.Allowed {
		t.Fatal("disabled policy must always allow")
	}
}

func TestResetClearsState(t *testing.T) {
	p := Policy{Factor: 1}
	st := State{FailureCount: 3, FailureTimestamp: t0}

	p.Reset(&st)

	if st.FailureCount != 0 || !st.FailureTimestamp.IsZero() {
		t.Fatalf("state after reset = %+v", st)
	}
}

func TestDelayOverflowCap(t *testing.T) {
	p := Policy{Factor: 1}
	st := State{FailureCount: 500, FailureTimestamp: t0}

	d := p.Allowed(st, t0.Add(time.Hour))
	if d.Allowed {
		t.Fatal("a 500-failure device must still be locked an hour later")
	}
	if !d.LockedUntil.After(t0) {
		t.Fatalf("locked until %v, want after %v", d.LockedUntil, t0)
	}
}

func TestCooldown(t *testing.T) {
	p := CooldownPolicy{Duration: 60 * time.Second}
	var st Cooldown

	// Never generated: allowed.
	if d := p.GenerateAllowed(st, t0); !d.Allowed {
		t.Fatal("first generation must be allowed")
	}

	p.MarkGenerated(&st, t0)

	d := p.GenerateAllowed(st, t0.Add(30*time.Second))
	if d.Allowed {
		t.Fatal("generation inside the cooldown must be declined")
	}
	if d.Reason != ReasonCooldownPending {
		t.Fatalf("reason = %q", d.Reason)
	}
	if want := t0.Add(60 * time.Second); !d.NextGenerationAt.Equal(want) {
		t.Fatalf("next generation at %v, want %v", d.NextGenerationAt, want)
	}

	if d := p.GenerateAllowed(st, t0.Add(60*time.Second)); !d.Allowed {
		t.Fatal("generation at cooldown expiry must be allowed")
	}
}

func TestCooldownReset(t *testing.T) {
	p := CooldownPolicy{Duration: time.Hour}
	st := Cooldown{LastGeneratedAt: t0}

	p.Reset(&st)

	if d := p.GenerateAllowed(st, t0.Add(time.Second)); !d.Allowed {
		t.Fatal("reset must allow immediate regeneration")
	}
}

func TestCooldownZeroDurationDisabled(t *testing.T) {
	p := CooldownPolicy{}
	st := Cooldown{LastGeneratedAt: t0}

	if d := p.GenerateAllowed(st, t0); !d.Allowed {
		t.Fatal("zero duration must disable the cooldown")
	}
}
