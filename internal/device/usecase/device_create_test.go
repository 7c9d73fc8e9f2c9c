package usecase

import (
	"strings"
	"testing"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

func TestDeviceCreate(t *testing.T) {
	t.Run("HOTPStartsUnconfirmedWithURI", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "hotp", Name: "phone"})

		// Assert
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if out.Confirmed {
			t.Fatal("expected device to start unconfirmed")
		}
		if !strings.HasPrefix(out.ConfigURI, "otpauth://hotp/") {
			t.Fatalf("unexpected uri %q", out.ConfigURI)
		}
		if !strings.Contains(out.ConfigURI, "issuer=otpd") {
			t.Fatalf("expected issuer in uri %q", out.ConfigURI)
		}

		dt, id, err := entity.ParsePersistentID(out.PersistentID)
		if err != nil || dt != entity.DeviceTypeHOTP {
			t.Fatalf("unexpected persistent id %q", out.PersistentID)
		}
		dev := f.repo.get(dt, id)
		if dev == nil || dev.HOTP == nil || dev.HOTP.Tolerance != entity.DefaultHOTPTolerance {
			t.Fatalf("unexpected stored device: %+v", dev)
		}
		if len(dev.KeyCiphertext) == 0 {
			t.Fatal("expected sealed key in storage")
		}
	})

	t.Run("TOTPStartsAtNoObservedStep", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "totp", Name: "authenticator"})

		// Assert
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if !strings.Contains(out.ConfigURI, "period=30") {
			t.Fatalf("unexpected uri %q", out.ConfigURI)
		}

		dt, id, _ := entity.ParsePersistentID(out.PersistentID)
		dev := f.repo.get(dt, id)
		if dev.TOTP == nil || dev.TOTP.LastT != -1 {
			t.Fatalf("unexpected totp state: %+v", dev.TOTP)
		}
	})

	t.Run("EmailRequiresAddress", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "email", Name: "inbox"})

		// Assert
		assertErrorCode(t, err, goerror.CodeInvalidFormat)

		// With an address it works and starts unconfirmed.
		out, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{
			Type: "email", Name: "inbox", Email: "user@example.com",
		})
		if err != nil || out.Confirmed {
			t.Fatalf("expected unconfirmed email device, got %+v err %v", out, err)
		}
	})

	t.Run("StaticIsImmediatelyUsable", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "static", Name: "backup"})

		// Assert
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if !out.Confirmed {
			t.Fatal("expected static device to be confirmed")
		}
		if len(out.StaticTokens) != 3 {
			t.Fatalf("expected 3 tokens, got %d", len(out.StaticTokens))
		}

		// Storage holds hashes, not the plaintexts.
		_, id, _ := entity.ParsePersistentID(out.PersistentID)
		toks, _ := f.repo.GetStaticTokens(authedCtx(), id)
		if len(toks) != 3 {
			t.Fatalf("expected 3 stored tokens, got %d", len(toks))
		}
		for _, tok := range toks {
			for _, plain := range out.StaticTokens {
				if tok.TokenHash == plain {
					t.Fatal("plaintext token stored")
				}
			}
		}
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		_, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "sms", Name: "phone"})

		// Assert
		assertErrorCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("IdempotencyKeyRejectsDuplicate", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		in := DeviceCreateInput{Type: "hotp", Name: "phone", IdempotencyKey: "req-1"}
		if _, err := f.uc.DeviceCreate(authedCtx(), in); err != nil {
			t.Fatalf("first create: %v", err)
		}

		// Act
		_, err := f.uc.DeviceCreate(authedCtx(), in)

		// Assert
		assertErrorCode(t, err, goerror.CodeConflict)
	})
}
