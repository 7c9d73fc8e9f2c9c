package usecase

import (
	"context"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type ConfigURIInput struct {
	PersistentID string `validate:"required"`
}

type ConfigURIOutput struct {
	PersistentID string
	ConfigURI    string
}

// ConfigURI rebuilds the otpauth:// provisioning URI for a generator device,
// for example to re-enroll a device in a new authenticator app.
//
// This unseals the device key, so the response must be treated as secret.
func (s *Usecase) ConfigURI(ctx context.Context, in ConfigURIInput) (*ConfigURIOutput, error) {
	ctx, span := s.startSpan(ctx, "ConfigURI")
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

	if dev.Type != entity.DeviceTypeHOTP && dev.Type != entity.DeviceTypeTOTP {
		return nil, goerror.NewBusiness("device type has no provisioning uri", goerror.CodeInvalidInput)
	}

	key, err := s.deviceKey(ctx, dev)
	if err != nil {
		return nil, err
	}

	uri, err := s.configURI(dev, key)
	if err != nil {
		return nil, err
	}

	return &ConfigURIOutput{PersistentID: dev.PersistentID(), ConfigURI: uri}, nil
}
