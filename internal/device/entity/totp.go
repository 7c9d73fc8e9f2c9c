package entity

import (
	"time"

	"github.com/shandysiswandi/otpd/internal/pkg/oath"
)

// DefaultTOTPTolerance is the number of time steps accepted on either side of
// the current one.
const DefaultTOTPTolerance = 1

// TOTPState is the mutable verification state of a time-based device.
type TOTPState struct {
	// Step is the time step length in seconds.
	Step uint
	// T0 is the Unix epoch offset the step sequence starts from.
	T0 int64
	// Digits is the token length.
	Digits int
	// Tolerance is how many steps on either side of the current one to accept.
	Tolerance int64
	// Drift is the learned clock offset of the token generator, in steps.
	Drift int64
	// LastT is the highest step value that has already produced a successful
	// verification. -1 until the first success.
	LastT int64
}

// Verify checks token against the steps within Tolerance of the current one,
// adjusted by the learned Drift.
//
// Steps at or below LastT are never accepted again, so a token can only
// verify once. On success LastT advances to the matched step and, when sync
// is set and the match was off-center, Drift absorbs the offset so future
// verifications start from the generator's clock. On failure the state is
// unchanged.
func (s *TOTPState) Verify(key []byte, token string, now time.Time, sync bool) bool {
	for offset := -s.Tolerance; offset <= s.Tolerance; offset++ {
		step := oath.TOTPStep(now.Unix(), s.Step, s.T0, s.Drift+offset)
		if step <= s.LastT || step < 0 {
			continue
		}

		if oath.EqualCode(oath.HOTP(key, uint64(step), s.Digits), s.Digits, token) {
			s.LastT = step
			if sync && offset != 0 {
				s.Drift += offset
			}
			return true
		}
	}

	return false
}
