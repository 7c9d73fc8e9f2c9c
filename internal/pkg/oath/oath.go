package oath

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SHA-1 is mandated by RFC 4226.
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	"strconv"
)

// DefaultDigits is the token width used when a device does not specify one.
const DefaultDigits = 6

// DefaultStep is the TOTP time step in seconds per RFC 6238.
const DefaultStep = 30

// HOTP computes the RFC 4226 token for the given key and counter.
//
// The key may be empty; validating key material is the caller's concern.
// digits outside [1, 9] is clamped to DefaultDigits.
func HOTP(key []byte, counter uint64, digits int) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	digest := mac.Sum(nil)

	offset := digest[len(digest)-1] & 0x0f
	code := uint32(digest[offset]&0x7f)<<24 |
		uint32(digest[offset+1])<<16 |
		uint32(digest[offset+2])<<8 |
		uint32(digest[offset+3])

	return code % pow10(normalizeDigits(digits))
}

// TOTPStep resolves the time-step index for a wall-clock time.
//
// now is epoch seconds. drift is the persisted prover/server skew in steps.
// The division floors toward negative infinity so times before t0 resolve
// to negative steps instead of rounding toward zero.
func TOTPStep(now int64, step uint, t0 int64, drift int64) int64 {
	if step == 0 {
		step = DefaultStep
	}

	elapsed := now - t0
	q := elapsed / int64(step)
	if elapsed%int64(step) < 0 {
		q--
	}

	return q + drift
}

// TOTP computes the token for the time step resolved by TOTPStep.
func TOTP(key []byte, now int64, step uint, t0 int64, digits int, drift int64) uint32 {
	return HOTP(key, uint64(TOTPStep(now, step, t0, drift)), digits)
}

// Format renders a token as a left-zero-padded decimal string.
func Format(code uint32, digits int) string {
	digits = normalizeDigits(digits)

	s := strconv.FormatUint(uint64(code), 10)
	for len(s) < digits {
		s = "0" + s
	}

	return s[len(s)-digits:]
}

// Equal compares two rendered tokens in constant time.
//
// Both values must already be fixed-width (see Format); comparing values of
// different length returns false without leaking where they differ.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// EqualCode formats code to digits width and compares it against submitted
// in constant time.
func EqualCode(code uint32, digits int, submitted string) bool {
	return Equal(Format(code, digits), submitted)
}

// RandomKey returns n cryptographically random bytes for use as a shared
// secret. RFC 4226 recommends 20 bytes.
func RandomKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// RandomDecimal returns a uniformly random decimal token of the given
// width, left-zero-padded. Used for side-channel and static tokens.
func RandomDecimal(digits int) (string, error) {
	digits = normalizeDigits(digits)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(pow10(digits))))
	if err != nil {
		return "", err
	}

	return Format(uint32(n.Int64()), digits), nil
}

// EncodeKey renders key material in the hex form used for storage.
func EncodeKey(key []byte) string {
	return hex.EncodeToString(key)
}

// DecodeKey parses the hex storage form of a key.
func DecodeKey(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// KeyToBase32 renders key material in the unpadded base32 form that
// authenticator provisioning URIs expect.
func KeyToBase32(key []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key)
}

func normalizeDigits(digits int) int {
	if digits < 1 || digits > 9 {
		return DefaultDigits
	}
	return digits
}

func pow10(n int) uint32 {
	out := uint32(1)
	for range n {
		out *= 10
	}
	return out
}
