package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpd/internal/pkg/keywrap"
	"github.com/shandysiswandi/otpd/internal/pkg/oath"
)

// deviceKeyBytes is the shared-secret length for generator devices, per
// RFC 4226's recommendation.
const deviceKeyBytes = 20

// staticTokenDigits is the width of generated backup tokens.
const staticTokenDigits = 8

type DeviceCreateInput struct {
	Type   string `validate:"required,oneof=hotp totp email static"`
	Name   string `validate:"required,max=64"`
	Email  string `validate:"omitempty,email"`
	Digits int    `validate:"omitempty,oneof=6 8"`

	// IdempotencyKey makes retried creations safe; a reused key is rejected
	// instead of registering a second device.
	IdempotencyKey string `validate:"omitempty,max=128"`
}

type DeviceCreateOutput struct {
	PersistentID string
	DeviceType   string
	Confirmed    bool

	// ConfigURI is the provisioning URI for generator devices. Only returned
	// here; the key is sealed before it reaches storage.
	ConfigURI string

	// StaticTokens are the plaintext backup tokens for static devices. Only
	// returned here; storage holds their hashes.
	StaticTokens []string
}

// DeviceCreate registers a new OTP device for the authenticated user.
//
// Generator devices (hotp, totp) get a fresh random key and start
// unconfirmed; the user proves possession via DeviceConfirm. Email devices
// also start unconfirmed. Static devices are usable immediately.
func (s *Usecase) DeviceCreate(ctx context.Context, in DeviceCreateInput) (*DeviceCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceCreate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	dt := entity.DeviceTypeFromString(in.Type)
	if dt == entity.DeviceTypeEmail && strings.TrimSpace(in.Email) == "" {
		return nil, goerror.NewInvalidFormat("email is required for email devices")
	}

	digits := in.Digits
	if digits == 0 {
		digits = oath.DefaultDigits
	}

	dev := &entity.Device{
		ID:        s.uid.Generate(),
		UserID:    clm.UserID,
		Name:      strings.TrimSpace(in.Name),
		Type:      dt,
		Confirmed: dt == entity.DeviceTypeStatic,
		Email:     strings.TrimSpace(in.Email),
	}

	out := &DeviceCreateOutput{DeviceType: dt.String(), Confirmed: dev.Confirmed}

	var tokens []entity.StaticToken

	switch dt {
	case entity.DeviceTypeHOTP, entity.DeviceTypeTOTP:
		key, kErr := oath.RandomKey(deviceKeyBytes)
		if kErr != nil {
			slog.ErrorContext(ctx, "failed to generate device key", "error", kErr)
			return nil, goerror.NewServer(kErr)
		}

		sealed, sErr := s.sealer.Seal(key, keywrap.Scope{DeviceID: dev.ID, Purpose: keywrap.PurposeDeviceKey})
		if sErr != nil {
			slog.ErrorContext(ctx, "failed to seal device key", "error", sErr)
			return nil, goerror.NewServer(sErr)
		}
		dev.KeyCiphertext = sealed

		if dt == entity.DeviceTypeHOTP {
			dev.HOTP = &entity.HOTPState{Digits: digits, Tolerance: entity.DefaultHOTPTolerance}
		} else {
			dev.TOTP = &entity.TOTPState{
				Step:      oath.DefaultStep,
				Digits:    digits,
				Tolerance: entity.DefaultTOTPTolerance,
				LastT:     -1,
			}
		}

		uri, uErr := s.configURI(dev, key)
		if uErr != nil {
			return nil, uErr
		}
		out.ConfigURI = uri

	case entity.DeviceTypeEmail:
		dev.SideChannel = &entity.SideChannelState{}

	case entity.DeviceTypeStatic:
		count := s.cfg.GetInt("modules.device.static_initial_tokens")
		tokens, out.StaticTokens, err = s.newStaticTokens(ctx, dev.ID, count)
		if err != nil {
			return nil, err
		}
	}

	create := func(ctx context.Context) error {
		if dt == entity.DeviceTypeStatic {
			return s.repoDB.NewStaticDevice(ctx, dev, tokens)
		}
		return s.repoDB.CreateDevice(ctx, dev)
	}

	if in.IdempotencyKey != "" {
		err = s.idemp.Exec(ctx, "device_create:"+in.IdempotencyKey, create)
		if errors.Is(err, idempotency.ErrAlreadyInProgress) || errors.Is(err, idempotency.ErrAlreadyCompleted) {
			slog.WarnContext(ctx, "duplicate device creation request", "user_id", clm.UserID)
			return nil, goerror.NewBusiness("device creation already processed", goerror.CodeConflict)
		}
	} else {
		err = create(ctx)
	}
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewBusiness("device already exists", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create device", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out.PersistentID = dev.PersistentID()

	return out, nil
}

// newStaticTokens generates count backup tokens, returning the entities to
// persist (hashed) and the plaintexts to show once.
func (s *Usecase) newStaticTokens(ctx context.Context, deviceID uint64, count int) ([]entity.StaticToken, []string, error) {
	if count <= 0 {
		count = 10
	}

	entities := make([]entity.StaticToken, 0, count)
	plains := make([]string, 0, count)

	for range count {
		plain, err := oath.RandomDecimal(staticTokenDigits)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate static token", "error", err)
			return nil, nil, goerror.NewServer(err)
		}

		hashed, err := s.argon2id.Hash(plain)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash static token", "error", err)
			return nil, nil, goerror.NewServer(err)
		}

		entities = append(entities, entity.StaticToken{
			ID:        s.uid.Generate(),
			DeviceID:  deviceID,
			TokenHash: string(hashed),
		})
		plains = append(plains, plain)
	}

	return entities, plains, nil
}

func (s *Usecase) configURI(dev *entity.Device, key []byte) (string, error) {
	params := oath.URIParams{
		Label:  dev.Name,
		Issuer: s.cfg.GetString("modules.device.issuer"),
		Key:    key,
	}

	switch dev.Type {
	case entity.DeviceTypeHOTP:
		params.Kind = oath.KindHOTP
		params.Digits = dev.HOTP.Digits
		params.Counter = dev.HOTP.Counter
	case entity.DeviceTypeTOTP:
		params.Kind = oath.KindTOTP
		params.Digits = dev.TOTP.Digits
		params.Period = dev.TOTP.Step
	default:
		return "", goerror.NewBusiness("device type has no provisioning uri", goerror.CodeInvalidInput)
	}

	uri, err := oath.ConfigURI(params)
	if err != nil {
		return "", goerror.NewServer(err)
	}

	return uri, nil
}
