// Package hash provides helpers for hashing and verifying secrets.
//
// Typical usage is for static backup tokens: store only the hash, then verify
// a submitted token by comparing it against the stored hash. Implementations
// live in this package behind the Hash interface.
package hash

// Hash hashes plaintext secrets and verifies submissions against stored hashes.
type Hash interface {
	// Hash takes a plaintext string and returns its hashed representation.
	Hash(str string) ([]byte, error)
	// Verify reports whether the plaintext string matches the hashed value.
	Verify(hashed, str string) bool
}
