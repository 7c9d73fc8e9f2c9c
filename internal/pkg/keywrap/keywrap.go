// Package keywrap encrypts device secrets at rest.
//
// Raw OTP keys never hit the database in the clear: they are sealed with
// AES-256-GCM, bound to the owning device via AAD so a ciphertext copied onto
// another row fails to open.
package keywrap

// Sealer encrypts and decrypts device key material.
type Sealer interface {
	// Seal returns ciphertext for the given plaintext and scope.
	Seal(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Open returns plaintext for the given ciphertext and scope.
	Open(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider provides raw AES keys. For AES-256-GCM, keys must be 32 bytes.
type KeyProvider interface {
	// Key returns the raw AES key to use for this scope. Implementations may
	// return per-tenant or per-environment keys.
	Key(scope Scope) ([]byte, error)
}

// Purpose identifies what kind of secret is being sealed.
type Purpose string

const (
	// PurposeDeviceKey scopes encryption to OTP device keys.
	PurposeDeviceKey Purpose = "device_key"
	// PurposeStaticToken scopes encryption to static backup tokens.
	PurposeStaticToken Purpose = "static_token"
)

// Scope binds a ciphertext to a specific device and purpose.
// It is used as AAD (Additional Authenticated Data) in AES-GCM.
type Scope struct {
	// DeviceID is the owning device identifier.
	DeviceID uint64
	// Purpose is the encryption purpose.
	Purpose Purpose
}
