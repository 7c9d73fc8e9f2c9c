package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/mail"
	"github.com/shandysiswandi/otpd/internal/pkg/oath"
	"github.com/shandysiswandi/otpd/internal/pkg/throttle"
)

type GenerateChallengeInput struct {
	PersistentID string `validate:"required"`
}

type GenerateChallengeOutput struct {
	PersistentID string
	DeviceType   string
	// Delivered reports that the token was handed to the delivery channel.
	// The token itself is never returned.
	Delivered bool
}

// GenerateChallenge creates a fresh single-use token for a side-channel
// device and delivers it over the device's channel.
//
// Generation is cooldown-gated per device. The token is persisted (hashed)
// before delivery, so a delivery failure surfaces to the caller while the
// token stays verifiable in case the message went out anyway.
func (s *Usecase) GenerateChallenge(ctx context.Context, in GenerateChallengeInput) (*GenerateChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateChallenge")
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

	if !dt.Interactive() {
		return nil, goerror.NewBusiness("device type cannot generate challenges", goerror.CodeInvalidInput)
	}

	token, err := oath.RandomDecimal(entity.DefaultSideChannelDigits)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate challenge token", "error", err)
		return nil, goerror.NewServer(err)
	}

	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash challenge token", "error", err)
		return nil, goerror.NewServer(err)
	}

	var out *entity.Device

	backoff := retry.WithMaxRetries(lockRetryAttempts, retry.NewExponential(lockRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		lockErr := s.repoDB.WithDeviceLock(ctx, dt, id, func(ctx context.Context, dev *entity.Device, tx entity.DeviceTx) error {
			if dev.UserID != clm.UserID {
				slog.WarnContext(ctx, "device not owned by user",
					"persistent_id", dev.PersistentID(), "user_id", clm.UserID)
				return goerror.NewBusiness("device not found", goerror.CodeNotFound)
			}

			now := s.clock.Now()

			sc := dev.SideChannel
			if sc == nil {
				sc = &entity.SideChannelState{}
				dev.SideChannel = sc
			}

			cd := throttle.Cooldown{LastGeneratedAt: sc.LastGeneratedAt}
			if dec := s.cooldown.GenerateAllowed(cd, now); !dec.Allowed {
				return goerror.NewBusinessWithFields(
					"Token generation cooldown period has not expired yet",
					goerror.CodeTooManyRequest,
					map[string]string{
						"next_generation_at": dec.NextGenerationAt.UTC().Format(time.RFC3339),
					},
				)
			}

			sc.SetToken(string(tokenHash), now, s.cfg.GetMinute("modules.device.email_token_ttl_minutes"))

			out = dev

			return tx.SaveState(ctx, dev)
		})
		if errors.Is(lockErr, goerror.ErrSerialization) {
			return retry.RetryableError(lockErr)
		}

		return lockErr
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, s.mapDeviceError(ctx, err, in.PersistentID)
	}
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}

		slog.ErrorContext(ctx, "failed to generate challenge", "persistent_id", in.PersistentID, "error", err)

		return nil, goerror.NewServer(err)
	}

	if err := s.deliverToken(ctx, out, token); err != nil {
		return nil, err
	}

	s.publishChallengeGenerated(ctx, out)

	return &GenerateChallengeOutput{
		PersistentID: out.PersistentID(),
		DeviceType:   out.Type.String(),
		Delivered:    true,
	}, nil
}

func (s *Usecase) deliverToken(ctx context.Context, dev *entity.Device, token string) error {
	ttl := s.cfg.GetMinute("modules.device.email_token_ttl_minutes")

	msg := mail.Message{
		To:      []string{dev.Email},
		Subject: "Your verification code",
		TextBody: fmt.Sprintf(
			"Your verification code is %s. It expires in %d minutes.",
			token, int(ttl.Minutes()),
		),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to deliver challenge token",
			"persistent_id", dev.PersistentID(), "error", err)
		return goerror.NewServer(fmt.Errorf("token delivery failed: %w", err))
	}

	return nil
}
