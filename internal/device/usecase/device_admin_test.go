package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/jwt"
)

func TestDeviceList(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedHOTP(t, 1, true)
	f.seedTOTP(t, 2)
	f.seedEmail(t, 3)
	f.seedHOTP(t, 4, false)

	otherUser := f.seedHOTP(t, 5, true)
	otherUser.UserID = testUserID + 1
	f.repo.put(otherUser)

	// Act
	all, err := f.uc.DeviceList(authedCtx(), DeviceListInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	confirmed, err := f.uc.DeviceList(authedCtx(), DeviceListInput{ConfirmedOnly: true})
	if err != nil {
		t.Fatalf("list confirmed: %v", err)
	}

	// Assert
	if len(all.Devices) != 4 {
		t.Fatalf("expected 4 devices, got %d", len(all.Devices))
	}
	if len(confirmed.Devices) != 3 {
		t.Fatalf("expected 3 confirmed devices, got %d", len(confirmed.Devices))
	}
	for _, item := range all.Devices {
		if !strings.Contains(item.PersistentID, "/") {
			t.Fatalf("bad persistent id %q", item.PersistentID)
		}
		if item.Interactive != (item.DeviceType == "email") {
			t.Fatalf("wrong interactive flag for %s device", item.DeviceType)
		}
	}
}

func TestDeviceDetail(t *testing.T) {
	t.Run("GeneratorDevice", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		dev := f.seedTOTP(t, 2)

		// Act
		out, err := f.uc.DeviceDetail(authedCtx(), DeviceDetailInput{PersistentID: dev.PersistentID()})

		// Assert
		if err != nil {
			t.Fatalf("detail: %v", err)
		}
		want := &DeviceDetailOutput{
			PersistentID: dev.PersistentID(),
			Name:         "authenticator",
			DeviceType:   "totp",
			Confirmed:    true,
			CreatedAt:    f.clock.Now(),
			Digits:       6,
		}
		if diff := cmp.Diff(want, out); diff != "" {
			t.Fatalf("unexpected detail (-want +got):\n%s", diff)
		}
	})

	t.Run("StaticCountsUnusedTokens", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		created, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "static", Name: "backup"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := f.uc.VerifyToken(authedCtx(), VerifyTokenInput{
			PersistentID: created.PersistentID,
			Token:        created.StaticTokens[0],
		}); err != nil {
			t.Fatalf("verify: %v", err)
		}

		// Act
		out, err := f.uc.DeviceDetail(authedCtx(), DeviceDetailInput{PersistentID: created.PersistentID})

		// Assert
		if err != nil {
			t.Fatalf("detail: %v", err)
		}
		if out.UnusedTokens != 2 {
			t.Fatalf("expected 2 unused tokens, got %d", out.UnusedTokens)
		}
	})

	t.Run("OtherUsersDeviceHidden", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		dev := f.seedHOTP(t, 1, true)
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: testUserID + 1})

		// Act
		_, err := f.uc.DeviceDetail(ctx, DeviceDetailInput{PersistentID: dev.PersistentID()})

		// Assert
		assertErrorCode(t, err, goerror.CodeNotFound)
	})
}

func TestDeviceDelete(t *testing.T) {
	// Arrange
	f := newFixture(t)
	dev := f.seedHOTP(t, 1, true)

	// Act
	out, err := f.uc.DeviceDelete(authedCtx(), DeviceDeleteInput{PersistentID: dev.PersistentID()})

	// Assert
	if err != nil || out.PersistentID != dev.PersistentID() {
		t.Fatalf("delete failed: %v", err)
	}
	if f.repo.get(entity.DeviceTypeHOTP, 1) != nil {
		t.Fatal("expected device to be gone")
	}

	// Deleting again reports not found.
	_, err = f.uc.DeviceDelete(authedCtx(), DeviceDeleteInput{PersistentID: dev.PersistentID()})
	assertErrorCode(t, err, goerror.CodeNotFound)
}

func TestDeviceReset(t *testing.T) {
	// Arrange: lock the device out.
	f := newFixture(t)
	dev := f.seedHOTP(t, 1, true)
	if _, err := f.uc.VerifyToken(authedCtx(), VerifyTokenInput{
		PersistentID: dev.PersistentID(), Token: "000000",
	}); err == nil {
		t.Fatal("expected wrong token to fail")
	}
	if _, err := f.uc.VerifyToken(authedCtx(), VerifyTokenInput{
		PersistentID: dev.PersistentID(), Token: rfcTokens[0],
	}); err == nil {
		t.Fatal("expected lockout")
	}

	// Act
	if _, err := f.uc.DeviceReset(authedCtx(), DeviceResetInput{PersistentID: dev.PersistentID()}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// Assert: the device verifies immediately without waiting out the lockout.
	out, err := f.uc.VerifyToken(authedCtx(), VerifyTokenInput{
		PersistentID: dev.PersistentID(), Token: rfcTokens[0],
	})
	if err != nil || !out.Verified {
		t.Fatalf("expected verify after reset, got %v", err)
	}
}

func TestConfigURI(t *testing.T) {
	t.Run("RoundTripsProvisioningSecret", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		created, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "totp", Name: "authenticator"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		// Act
		out, err := f.uc.ConfigURI(authedCtx(), ConfigURIInput{PersistentID: created.PersistentID})

		// Assert
		if err != nil {
			t.Fatalf("config uri: %v", err)
		}
		if out.ConfigURI != created.ConfigURI {
			t.Fatalf("uri mismatch:\ncreate: %s\nfetch:  %s", created.ConfigURI, out.ConfigURI)
		}
	})

	t.Run("EmailDeviceHasNone", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		dev := f.seedEmail(t, 3)

		// Act
		_, err := f.uc.ConfigURI(authedCtx(), ConfigURIInput{PersistentID: dev.PersistentID()})

		// Assert
		assertErrorCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestStaticTokenCreate(t *testing.T) {
	// Arrange
	f := newFixture(t)
	created, err := f.uc.DeviceCreate(authedCtx(), DeviceCreateInput{Type: "static", Name: "backup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Act
	out, err := f.uc.StaticTokenCreate(authedCtx(), StaticTokenCreateInput{
		PersistentID: created.PersistentID,
		Count:        2,
	})

	// Assert
	if err != nil {
		t.Fatalf("add tokens: %v", err)
	}
	if len(out.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(out.Tokens))
	}

	// New tokens verify alongside the originals.
	vout, err := f.uc.VerifyToken(authedCtx(), VerifyTokenInput{
		PersistentID: created.PersistentID,
		Token:        out.Tokens[0],
	})
	if err != nil || !vout.Verified {
		t.Fatalf("expected new token to verify, got %v", err)
	}

	// Only static devices take tokens.
	hotp := f.seedHOTP(t, 90, true)
	_, err = f.uc.StaticTokenCreate(authedCtx(), StaticTokenCreateInput{
		PersistentID: hotp.PersistentID(),
		Count:        2,
	})
	assertErrorCode(t, err, goerror.CodeInvalidInput)
}
