package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/jwt"
	"github.com/shandysiswandi/otpd/internal/pkg/keywrap"
	"github.com/shandysiswandi/otpd/internal/pkg/throttle"
)

const (
	reasonInvalidToken = "INVALID_TOKEN"

	lockRetryAttempts = 3
	lockRetryBase     = 20 * time.Millisecond
)

type VerifyTokenInput struct {
	PersistentID string `validate:"required"`
	Token        string `validate:"required,otptoken"`
}

type VerifyTokenOutput struct {
	PersistentID string
	DeviceType   string
	Verified     bool
}

// VerifyToken checks a user-submitted token against a confirmed device.
//
// The device row is locked for the duration of the check, so two concurrent
// submissions of the same token serialize and only the first one succeeds.
func (s *Usecase) VerifyToken(ctx context.Context, in VerifyTokenInput) (*VerifyTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	dev, err := s.verifyWithLock(ctx, clm, in.PersistentID, in.Token, false)
	if err != nil {
		return nil, err
	}

	return &VerifyTokenOutput{
		PersistentID: dev.PersistentID(),
		DeviceType:   dev.Type.String(),
		Verified:     true,
	}, nil
}

// verifyWithLock runs one throttle-gated verification attempt under the
// device row lock, retrying the whole attempt when the database reports a
// serialization conflict. forConfirmation relaxes the confirmed requirement
// and marks the device confirmed on success.
func (s *Usecase) verifyWithLock(
	ctx context.Context,
	clm *jwt.Claims,
	persistentID string,
	token string,
	forConfirmation bool,
) (*entity.Device, error) {
	dt, id, err := entity.ParsePersistentID(persistentID)
	if err != nil {
		slog.WarnContext(ctx, "malformed persistent device id", "persistent_id", persistentID)
		return nil, goerror.NewInvalidFormat("malformed device id")
	}

	var (
		out      *entity.Device
		verified bool
	)

	backoff := retry.WithMaxRetries(lockRetryAttempts, retry.NewExponential(lockRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		lockErr := s.repoDB.WithDeviceLock(ctx, dt, id, func(ctx context.Context, dev *entity.Device, tx entity.DeviceTx) error {
			v, vErr := s.verifyLocked(ctx, clm, dev, tx, token, forConfirmation)
			if vErr != nil {
				return vErr
			}

			out = dev
			verified = v

			// A wrong token is still a clean attempt: the transaction must
			// commit so the incremented failure counter survives.
			return nil
		})
		if errors.Is(lockErr, goerror.ErrSerialization) {
			return retry.RetryableError(lockErr)
		}

		return lockErr
	})
	if errors.Is(err, goerror.ErrSerialization) {
		slog.ErrorContext(ctx, "verification lock kept conflicting", "persistent_id", persistentID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, s.mapDeviceError(ctx, err, persistentID)
	}
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}

		slog.ErrorContext(ctx, "failed to verify token", "persistent_id", persistentID, "error", err)

		return nil, goerror.NewServer(err)
	}

	if !verified {
		s.publishTokenVerified(ctx, out, false, reasonInvalidToken)
		return nil, goerror.NewBusiness("invalid token", goerror.CodeUnauthorized)
	}

	s.publishTokenVerified(ctx, out, true, "")

	return out, nil
}

// verifyLocked is the per-attempt body executed under the row lock. It
// mutates dev in place and persists the resulting state, on failure as well
// as success, because failure counters are part of the device state.
func (s *Usecase) verifyLocked(
	ctx context.Context,
	clm *jwt.Claims,
	dev *entity.Device,
	tx entity.DeviceTx,
	token string,
	forConfirmation bool,
) (bool, error) {
	if dev.UserID != clm.UserID {
		slog.WarnContext(ctx, "device not owned by user", "persistent_id", dev.PersistentID(), "user_id", clm.UserID)
		return false, goerror.NewBusiness("device not found", goerror.CodeNotFound)
	}

	if forConfirmation && dev.Confirmed {
		slog.WarnContext(ctx, "device already confirmed", "persistent_id", dev.PersistentID())
		return false, goerror.NewBusiness("device is already confirmed", goerror.CodeConflict)
	}

	if !forConfirmation && !dev.Confirmed {
		slog.WarnContext(ctx, "device not confirmed", "persistent_id", dev.PersistentID())
		return false, goerror.NewBusiness("device is not confirmed", goerror.CodeForbidden)
	}

	now := s.clock.Now()

	st := throttle.State{FailureCount: dev.FailureCount, FailureTimestamp: dev.FailureTimestamp}
	if dec := s.throttle.Allowed(st, now); !dec.Allowed {
		s.publishTokenVerified(ctx, dev, false, string(dec.Reason))
		return false, goerror.NewBusinessWithFields(
			"Verification temporarily disabled due to failed attempts",
			goerror.CodeTooManyRequest,
			map[string]string{
				"failure_count": strconv.FormatUint(uint64(dec.FailureCount), 10),
				"locked_until":  dec.LockedUntil.UTC().Format(time.RFC3339),
			},
		)
	}

	verified, err := s.checkToken(ctx, dev, tx, token, now)
	if err != nil {
		return false, err
	}

	if verified {
		s.throttle.Reset(&st)
		dev.LastUsedAt = now
		if forConfirmation {
			dev.Confirmed = true
		}
	} else {
		s.throttle.Increment(&st, now)
	}
	dev.FailureCount = st.FailureCount
	dev.FailureTimestamp = st.FailureTimestamp

	if err := tx.SaveState(ctx, dev); err != nil {
		slog.ErrorContext(ctx, "failed to repo save device state", "persistent_id", dev.PersistentID(), "error", err)
		return false, err
	}

	return verified, nil
}

// checkToken dispatches to the device type's verification mechanism.
func (s *Usecase) checkToken(
	ctx context.Context,
	dev *entity.Device,
	tx entity.DeviceTx,
	token string,
	now time.Time,
) (bool, error) {
	switch dev.Type {
	case entity.DeviceTypeHOTP:
		key, err := s.deviceKey(ctx, dev)
		if err != nil {
			return false, err
		}
		return dev.HOTP.Verify(key, token), nil

	case entity.DeviceTypeTOTP:
		key, err := s.deviceKey(ctx, dev)
		if err != nil {
			return false, err
		}
		return dev.TOTP.Verify(key, token, now, s.cfg.GetBool("modules.device.totp_sync")), nil

	case entity.DeviceTypeEmail:
		sc := dev.SideChannel
		if sc == nil || !sc.Outstanding(now) {
			return false, nil
		}
		if !s.hmac.Verify(sc.TokenHash, token) {
			return false, nil
		}
		sc.Consume()
		return true, nil

	case entity.DeviceTypeStatic:
		toks, err := tx.StaticTokens(ctx, dev.ID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list static tokens", "persistent_id", dev.PersistentID(), "error", err)
			return false, err
		}
		for i := range toks {
			if toks[i].Used() {
				continue
			}
			if s.argon2id.Verify(toks[i].TokenHash, token) {
				if err := tx.MarkStaticTokenUsed(ctx, toks[i].ID, now); err != nil {
					slog.ErrorContext(ctx, "failed to repo mark static token used",
						"persistent_id", dev.PersistentID(), "error", err)
					return false, err
				}
				return true, nil
			}
		}
		return false, nil

	default:
		return false, goerror.NewBusiness("device type cannot verify tokens", goerror.CodeInvalidInput)
	}
}

func (s *Usecase) deviceKey(ctx context.Context, dev *entity.Device) ([]byte, error) {
	key, err := s.sealer.Open(dev.KeyCiphertext, keywrap.Scope{DeviceID: dev.ID, Purpose: keywrap.PurposeDeviceKey})
	if err != nil {
		slog.ErrorContext(ctx, "failed to unseal device key", "persistent_id", dev.PersistentID(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return key, nil
}
