package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type DeviceDetailInput struct {
	PersistentID string `validate:"required"`
}

type DeviceDetailOutput struct {
	PersistentID string
	Name         string
	DeviceType   string
	Confirmed    bool
	// Interactive is true for device types that deliver challenges out of
	// band instead of verifying generator tokens directly.
	Interactive  bool
	Email        string
	FailureCount uint32
	LastUsedAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Digits is the token width for devices that check tokens directly.
	Digits int

	// UnusedTokens is the remaining backup token count. Static only.
	UnusedTokens int
}

// DeviceDetail returns one device's public parameters. Key material is never
// included; use ConfigURI to re-provision a generator device.
func (s *Usecase) DeviceDetail(ctx context.Context, in DeviceDetailInput) (*DeviceDetailOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceDetail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	dev, err := s.ownedDevice(ctx, clm, in.PersistentID)
	if err != nil {
		return nil, err
	}

	out := &DeviceDetailOutput{
		PersistentID: dev.PersistentID(),
		Name:         dev.Name,
		DeviceType:   dev.Type.String(),
		Confirmed:    dev.Confirmed,
		Interactive:  dev.Type.Interactive(),
		Email:        dev.Email,
		FailureCount: dev.FailureCount,
		LastUsedAt:   dev.LastUsedAt,
		CreatedAt:    dev.CreatedAt,
		UpdatedAt:    dev.UpdatedAt,
	}

	switch dev.Type {
	case entity.DeviceTypeHOTP:
		out.Digits = dev.HOTP.Digits
	case entity.DeviceTypeTOTP:
		out.Digits = dev.TOTP.Digits
	case entity.DeviceTypeEmail:
		out.Digits = entity.DefaultSideChannelDigits
	case entity.DeviceTypeStatic:
		toks, tErr := s.repoDB.GetStaticTokens(ctx, dev.ID)
		if tErr != nil {
			slog.ErrorContext(ctx, "failed to repo list static tokens",
				"persistent_id", dev.PersistentID(), "error", tErr)
			return nil, goerror.NewServer(tErr)
		}
		out.Digits = staticTokenDigits
		out.UnusedTokens = lo.CountBy(toks, func(tok entity.StaticToken) bool { return !tok.Used() })
	}

	return out, nil
}
