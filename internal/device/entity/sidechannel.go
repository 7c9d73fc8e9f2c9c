package entity

import "time"

// DefaultSideChannelDigits is the token length for delivered tokens.
const DefaultSideChannelDigits = 6

// SideChannelState is the mutable state of a device whose tokens are
// generated server-side and delivered out of band (e.g. email).
type SideChannelState struct {
	// TokenHash is the HMAC of the last generated token, empty when no token
	// is outstanding.
	TokenHash string
	// ValidUntil is when the outstanding token expires.
	ValidUntil time.Time
	// LastGeneratedAt is when a token was last generated, for cooldown gating.
	LastGeneratedAt time.Time
}

// Outstanding reports whether an undelivered-or-unverified token exists and
// has not yet expired.
func (s *SideChannelState) Outstanding(now time.Time) bool {
	return s.TokenHash != "" && now.Before(s.ValidUntil)
}

// SetToken records a freshly generated token hash with its expiry.
func (s *SideChannelState) SetToken(tokenHash string, now time.Time, validity time.Duration) {
	s.TokenHash = tokenHash
	s.ValidUntil = now.Add(validity)
	s.LastGeneratedAt = now
}

// Consume clears the outstanding token so it can never verify twice.
func (s *SideChannelState) Consume() {
	s.TokenHash = ""
	s.ValidUntil = time.Time{}
}
