package entity

import "github.com/shandysiswandi/otpd/internal/pkg/oath"

// DefaultHOTPTolerance is the number of future counter values accepted to
// absorb tokens the user generated but never submitted.
const DefaultHOTPTolerance = 5

// HOTPState is the mutable verification state of a counter-based device.
type HOTPState struct {
	// Counter is the next counter value expected from the token generator.
	Counter uint64
	// Digits is the token length.
	Digits int
	// Tolerance is how many counter values ahead of Counter are accepted.
	Tolerance uint64
}

// Verify checks token against the counters [Counter, Counter+Tolerance].
//
// The smallest matching counter wins. On success the counter advances to one
// past the match, which also burns every earlier value in the window. On
// failure the state is unchanged.
func (s *HOTPState) Verify(key []byte, token string) bool {
	for c := s.Counter; c <= s.Counter+s.Tolerance; c++ {
		if oath.EqualCode(oath.HOTP(key, c, s.Digits), s.Digits, token) {
			s.Counter = c + 1
			return true
		}
	}

	return false
}
