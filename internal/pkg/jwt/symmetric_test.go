package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ id string }

func (g fixedID) Generate() string { return g.id }

func testConfig(now time.Time) Config {
	return Config{
		Secret:    []byte(strings.Repeat("s", 64)),
		Issuer:    "otpd",
		Audiences: []string{"otpd-clients"},
		TTL:       15 * time.Minute,
		Clock:     fixedClock{t: now},
		UUID:      fixedID{id: "jti-1"},
	}
}

func TestHS512RoundTrip(t *testing.T) {
	now := time.Now()

	s, err := NewHS512(testConfig(now))
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	token, err := s.Generate(77, "login-service")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != 77 {
		t.Errorf("UserID = %d, want 77", claims.UserID)
	}
	if claims.Client != "login-service" {
		t.Errorf("Client = %q, want %q", claims.Client, "login-service")
	}
	if claims.ID != "jti-1" {
		t.Errorf("ID = %q, want %q", claims.ID, "jti-1")
	}
}

func TestHS512Expired(t *testing.T) {
	s, err := NewHS512(testConfig(time.Now().Add(-time.Hour)))
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	token, err := s.Generate(1, "login-service")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := s.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestHS512ShortSecret(t *testing.T) {
	cfg := testConfig(time.Now())
	cfg.Secret = []byte("short")

	if _, err := NewHS512(cfg); !errors.Is(err, ErrSigningKeyTooShort) {
		t.Errorf("NewHS512() error = %v, want ErrSigningKeyTooShort", err)
	}
}

func TestHS512WrongSecret(t *testing.T) {
	now := time.Now()

	a, _ := NewHS512(testConfig(now))
	cfg := testConfig(now)
	cfg.Secret = []byte(strings.Repeat("x", 64))
	b, _ := NewHS512(cfg)

	token, err := a.Generate(1, "login-service")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("Verify() succeeded across different secrets")
	}
}
