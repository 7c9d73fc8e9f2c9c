package throttle

import "time"

// Cooldown is the persisted generation bookkeeping embedded in side-channel
// device records.
type Cooldown struct {
	// LastGeneratedAt is when the most recent challenge was generated.
	// The zero time means no challenge has ever been generated.
	LastGeneratedAt time.Time
}

// GenerateDecision reports whether a new challenge may be generated.
type GenerateDecision struct {
	// Allowed reports whether generation may proceed.
	Allowed bool
	// Reason is set when Allowed is false.
	Reason Reason
	// NextGenerationAt is the earliest time generation becomes allowed.
	NextGenerationAt time.Time
}

// CooldownPolicy enforces a minimum interval between successive challenge
// generations. A Duration of 0 disables the cooldown.
type CooldownPolicy struct {
	// Duration is the minimum interval between generations.
	Duration time.Duration
}

// GenerateAllowed decides whether a challenge may be generated at now.
func (p CooldownPolicy) GenerateAllowed(st Cooldown, now time.Time) GenerateDecision {
	if p.Duration <= 0 || st.LastGeneratedAt.IsZero() {
		return GenerateDecision{Allowed: true}
	}

	next := st.LastGeneratedAt.Add(p.Duration)
	if now.Before(next) {
		return GenerateDecision{
			Reason:           ReasonCooldownPending,
			NextGenerationAt: next,
		}
	}

	return GenerateDecision{Allowed: true}
}

// MarkGenerated records a generation at now.
func (p CooldownPolicy) MarkGenerated(st *Cooldown, now time.Time) {
	st.LastGeneratedAt = now
}

// Reset clears the cooldown, allowing immediate regeneration. This is an
// administrative override.
func (p CooldownPolicy) Reset(st *Cooldown) {
	st.LastGeneratedAt = time.Time{}
}
