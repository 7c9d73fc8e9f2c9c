package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type DeviceResetInput struct {
	PersistentID string `validate:"required"`
}

type DeviceResetOutput struct {
	PersistentID string
}

// DeviceReset clears a device's failure lockout and generation cooldown.
// This is an administrative unlock; it does not touch counters, drift, or
// outstanding tokens.
func (s *Usecase) DeviceReset(ctx context.Context, in DeviceResetInput) (*DeviceResetOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceReset")
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

	if err := s.repoDB.ResetThrottle(ctx, dev.Type, dev.ID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("device not found", goerror.CodeNotFound)
		}

		slog.ErrorContext(ctx, "failed to repo reset throttle", "persistent_id", in.PersistentID, "error", err)

		return nil, goerror.NewServer(err)
	}

	return &DeviceResetOutput{PersistentID: dev.PersistentID()}, nil
}
