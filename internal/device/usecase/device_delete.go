package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type DeviceDeleteInput struct {
	PersistentID string `validate:"required"`
}

type DeviceDeleteOutput struct {
	PersistentID string
}

// DeviceDelete removes a device and, for static devices, its remaining
// tokens. The delete is scoped to the authenticated user, so deleting
// someone else's device reports not found.
func (s *Usecase) DeviceDelete(ctx context.Context, in DeviceDeleteInput) (*DeviceDeleteOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceDelete")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	dt, id, err := entity.ParsePersistentID(in.PersistentID)
	if err != nil {
		slog.WarnContext(ctx, "malformed persistent device id", "persistent_id", in.PersistentID)
		return nil, goerror.NewInvalidFormat("malformed device id")
	}

	if err := s.repoDB.DeleteDevice(ctx, dt, id, clm.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "device not found", "persistent_id", in.PersistentID)
			return nil, goerror.NewBusiness("device not found", goerror.CodeNotFound)
		}

		slog.ErrorContext(ctx, "failed to repo delete device", "persistent_id", in.PersistentID, "error", err)

		return nil, goerror.NewServer(err)
	}

	return &DeviceDeleteOutput{PersistentID: in.PersistentID}, nil
}
