package throttle

import "time"

// Reason explains why an operation was declined.
type Reason string

const (
	// ReasonTooManyFailedAttempts means verification is locked out after
	// repeated failures.
	ReasonTooManyFailedAttempts Reason = "TOO_MANY_FAILED_ATTEMPTS"
	// ReasonCooldownPending means challenge generation is inside the
	// minimum interval since the previous generation.
	ReasonCooldownPending Reason = "COOLDOWN_PENDING"
)

// DefaultBaseDelay is the lockout unit after the first failure.
const DefaultBaseDelay = time.Second

// State is the persisted failure bookkeeping embedded in a device record.
//
// Invariant: FailureCount == 0 exactly when FailureTimestamp is the zero
// time; a reset clears both together.
type State struct {
	// FailureCount is the number of failed verifications since the last
	// success.
	FailureCount uint32
	// FailureTimestamp is when the most recent failure happened.
	FailureTimestamp time.Time
}

// Decision reports whether verification may proceed and, when it may not,
// enough detail for a user-facing "try again in N seconds" message.
type Decision struct {
	// Allowed reports whether the attempt may reach token comparison.
	Allowed bool
	// Reason is set when Allowed is false.
	Reason Reason
	// FailureCount echoes the device's current failure count.
	FailureCount uint32
	// LockedUntil is when the lockout expires.
	LockedUntil time.Time
}

// Policy computes lockout windows from failure counts.
//
// The delay after n failures is Factor * BaseDelay * 2^(n-1), so with the
// defaults a device locks for 1s, 2s, 4s, ... A Factor of 0 disables
// throttling entirely; such devices are always allowed and their counters
// are never touched.
type Policy struct {
	// Factor scales every lockout window. 0 disables throttling.
	Factor uint32
	// BaseDelay is the lockout unit. Zero means DefaultBaseDelay.
	BaseDelay time.Duration
}

// Allowed decides whether a verification attempt may proceed at now.
func (p Policy) Allowed(st State, now time.Time) Decision {
	if p.Factor == 0 || st.FailureCount == 0 {
		return Decision{Allowed: true, FailureCount: st.FailureCount}
	}

	until := st.FailureTimestamp.Add(p.delay(st.FailureCount))
	if now.Before(until) {
		return Decision{
			Reason:       ReasonTooManyFailedAttempts,
			FailureCount: st.FailureCount,
			LockedUntil:  until,
		}
	}

	return Decision{Allowed: true, FailureCount: st.FailureCount}
}

// Increment records a failed attempt that reached token comparison.
// Attempts rejected by Allowed must not be counted.
func (p Policy) Increment(st *State, now time.Time) {
	if p.Factor == 0 {
		return
	}

	st.FailureCount++
	st.FailureTimestamp = now
}

// Reset clears the failure bookkeeping after a successful verification.
func (p Policy) Reset(st *State) {
	st.FailureCount = 0
	st.FailureTimestamp = time.Time{}
}

func (p Policy) delay(failures uint32) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}

	// Cap the exponent so the shift cannot overflow; a month-scale lockout
	// is already indistinguishable from forever.
	exp := failures - 1
	if exp > 30 {
		exp = 30
	}

	return time.Duration(p.Factor) * base * time.Duration(uint64(1)<<exp)
}
