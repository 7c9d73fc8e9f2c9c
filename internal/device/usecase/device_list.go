package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type DeviceListInput struct {
	// ConfirmedOnly limits the listing to devices that can verify tokens.
	ConfirmedOnly bool
}

type DeviceListItem struct {
	PersistentID string
	Name         string
	DeviceType   string
	Confirmed    bool
	// Interactive is true for device types that deliver challenges out of
	// band instead of verifying generator tokens directly.
	Interactive bool
	CreatedAt   time.Time
}

type DeviceListOutput struct {
	Devices []DeviceListItem
}

// DeviceList returns the authenticated user's devices across all types.
func (s *Usecase) DeviceList(ctx context.Context, in DeviceListInput) (*DeviceListOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	devs, err := s.repoDB.ListDevices(ctx, clm.UserID, in.ConfirmedOnly)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list devices", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	items := lo.Map(devs, func(dev entity.Device, _ int) DeviceListItem {
		return DeviceListItem{
			PersistentID: dev.PersistentID(),
			Name:         dev.Name,
			DeviceType:   dev.Type.String(),
			Confirmed:    dev.Confirmed,
			Interactive:  dev.Type.Interactive(),
			CreatedAt:    dev.CreatedAt,
		}
	})

	return &DeviceListOutput{Devices: items}, nil
}
