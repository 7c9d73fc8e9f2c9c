package keywrap

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testSealer(t *testing.T) *AESGCM {
	t.Helper()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("key generation failed: %v", err)
	}

	return NewAESGCM(StaticKeyProvider{KeyBytes: key})
}

func TestAESGCMSealOpen(t *testing.T) {
	s := testSealer(t)
	scope := Scope{DeviceID: 42, Purpose: PurposeDeviceKey}
	plain := []byte("31323334353637383930")

	ct, err := s.Seal(plain, scope)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Contains(ct, plain) {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := s.Open(ct, scope)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("Open() = %q, want %q", got, plain)
	}
}

func TestAESGCMScopeBinding(t *testing.T) {
	s := testSealer(t)
	ct, err := s.Seal([]byte("secret"), Scope{DeviceID: 1, Purpose: PurposeDeviceKey})
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	tests := []struct {
		name  string
		scope Scope
	}{
		{"different device", Scope{DeviceID: 2, Purpose: PurposeDeviceKey}},
		{"different purpose", Scope{DeviceID: 1, Purpose: PurposeStaticToken}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Open(ct, tt.scope); !errors.Is(err, ErrOpenFailed) {
				t.Errorf("Open() error = %v, want ErrOpenFailed", err)
			}
		})
	}
}

func TestAESGCMInputErrors(t *testing.T) {
	s := testSealer(t)
	scope := Scope{DeviceID: 1, Purpose: PurposeDeviceKey}

	if _, err := s.Seal(nil, scope); !errors.Is(err, ErrPlaintextEmpty) {
		t.Errorf("Seal(nil) error = %v, want ErrPlaintextEmpty", err)
	}
	if _, err := s.Open([]byte{0, 1, 2}, scope); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Open(short) error = %v, want ErrCiphertextTooShort", err)
	}

	bad := NewAESGCM(StaticKeyProvider{KeyBytes: []byte("too-short")})
	if _, err := bad.Seal([]byte("x"), scope); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("Seal() with short key error = %v, want ErrInvalidKeyLength", err)
	}
}
