package usecase

import (
	"context"

	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type DeviceConfirmInput struct {
	PersistentID string `validate:"required"`
	Token        string `validate:"required,otptoken"`
}

type DeviceConfirmOutput struct {
	PersistentID string
	DeviceType   string
	Confirmed    bool
}

// DeviceConfirm proves possession of an unconfirmed device by verifying one
// token against it, then marks the device confirmed.
//
// The verification obeys the same throttling and state rules as VerifyToken,
// so a confirmed HOTP device does not re-accept the token that confirmed it.
func (s *Usecase) DeviceConfirm(ctx context.Context, in DeviceConfirmInput) (*DeviceConfirmOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceConfirm")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	dev, err := s.verifyWithLock(ctx, clm, in.PersistentID, in.Token, true)
	if err != nil {
		return nil, err
	}

	return &DeviceConfirmOutput{
		PersistentID: dev.PersistentID(),
		DeviceType:   dev.Type.String(),
		Confirmed:    dev.Confirmed,
	}, nil
}
