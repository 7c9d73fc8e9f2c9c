package keywrap

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Ciphertext format (binary):
// [0..1]   uint16 version (currently 1)
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const aesGCMVersion uint16 = 1

const (
	gcmNonceSize = 12
	aesKeyLen    = 32
)

var (
	// ErrSealerNotConfigured indicates a missing key provider.
	ErrSealerNotConfigured = errors.New("keywrap: sealer not configured")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("keywrap: plaintext is empty")
	// ErrInvalidKeyLength indicates the key length is invalid.
	ErrInvalidKeyLength = errors.New("keywrap: invalid key length")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("keywrap: ciphertext too short")
	// ErrUnsupportedVersion indicates an unsupported ciphertext version.
	ErrUnsupportedVersion = errors.New("keywrap: unsupported ciphertext version")
	// ErrOpenFailed indicates decryption failure.
	ErrOpenFailed = errors.New("keywrap: open failed")
	// ErrMissingStaticKey indicates a missing static key.
	ErrMissingStaticKey = errors.New("keywrap: missing static key")
)

// AESGCM implements Sealer using AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM constructs an AES-GCM sealer.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

// Seal encrypts plaintext with AES-256-GCM, binding the result to scope via AAD.
func (s *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if s == nil || s.keys == nil {
		return nil, ErrSealerNotConfigured
	}
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := s.gcm(scope)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("keywrap: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, scopeAAD(scope))

	out := make([]byte, 2+gcmNonceSize+len(sealed))
	binary.BigEndian.PutUint16(out[0:2], aesGCMVersion)
	copy(out[2:2+gcmNonceSize], nonce)
	copy(out[2+gcmNonceSize:], sealed)

	return out, nil
}

// Open decrypts ciphertext with AES-256-GCM, requiring the same scope AAD.
func (s *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if s == nil || s.keys == nil {
		return nil, ErrSealerNotConfigured
	}
	if len(ciphertext) < 2+gcmNonceSize+1 {
		return nil, ErrCiphertextTooShort
	}

	version := binary.BigEndian.Uint16(ciphertext[0:2])
	if version != aesGCMVersion {
		return nil, fmt.Errorf("keywrap: unsupported ciphertext version %d: %w", version, ErrUnsupportedVersion)
	}

	gcm, err := s.gcm(scope)
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[2 : 2+gcmNonceSize]
	sealed := ciphertext[2+gcmNonceSize:]

	plain, err := gcm.Open(nil, nonce, sealed, scopeAAD(scope))
	if err != nil {
		// Do not leak whether it was "wrong scope" vs "wrong key" vs "tampered".
		return nil, ErrOpenFailed
	}

	return plain, nil
}

func (s *AESGCM) gcm(scope Scope) (cipher.AEAD, error) {
	key, err := s.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("keywrap: key provider error: %w", err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("keywrap: invalid key length %d (want %d for AES-256): %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keywrap: aes init failed: %w", err)
	}

	return cipher.NewGCM(block)
}

// scopeAAD encodes the scope into a stable, fixed-length byte slice for GCM
// AAD. Purpose is included so a device-key ciphertext cannot be opened as a
// static-token ciphertext.
func scopeAAD(s Scope) []byte {
	canonical := fmt.Sprintf("device=%d\npurpose=%s\n", s.DeviceID, s.Purpose)
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}

// StaticKeyProvider returns the same key for every scope.
//
// Fine for local dev; production deployments should prefer a KMS-backed
// provider with rotation.
type StaticKeyProvider struct {
	KeyBytes []byte
}

// Key returns the static key for the provided scope.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}

	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}
