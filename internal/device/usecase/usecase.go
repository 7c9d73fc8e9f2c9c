package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/clock"
	"github.com/shandysiswandi/otpd/internal/pkg/config"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpd/internal/pkg/hash"
	"github.com/shandysiswandi/otpd/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpd/internal/pkg/instrument"
	"github.com/shandysiswandi/otpd/internal/pkg/jwt"
	"github.com/shandysiswandi/otpd/internal/pkg/keywrap"
	"github.com/shandysiswandi/otpd/internal/pkg/mail"
	"github.com/shandysiswandi/otpd/internal/pkg/throttle"
	"github.com/shandysiswandi/otpd/internal/pkg/uid"
	"github.com/shandysiswandi/otpd/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type TokenVerifiedEvent struct {
	UserID       int64
	PersistentID string
	DeviceType   string
	Verified     bool
	Reason       string
}

type ChallengeGeneratedEvent struct {
	UserID       int64
	PersistentID string
	DeviceType   string
}

type repoMessaging interface {
	PublishTokenVerified(ctx context.Context, msg TokenVerifiedEvent) error
	PublishChallengeGenerated(ctx context.Context, msg ChallengeGeneratedEvent) error
}

type repoDB interface {
	GetDevice(ctx context.Context, dt entity.DeviceType, id uint64) (*entity.Device, error)
	ListDevices(ctx context.Context, userID int64, confirmedOnly bool) ([]entity.Device, error)
	GetStaticTokens(ctx context.Context, deviceID uint64) ([]entity.StaticToken, error)

	CreateDevice(ctx context.Context, dev *entity.Device) error
	NewStaticDevice(ctx context.Context, dev *entity.Device, tokens []entity.StaticToken) error
	AddStaticTokens(ctx context.Context, tokens []entity.StaticToken) error

	ConfirmDevice(ctx context.Context, dt entity.DeviceType, id uint64) error
	DeleteDevice(ctx context.Context, dt entity.DeviceType, id uint64, userID int64) error
	ResetThrottle(ctx context.Context, dt entity.DeviceType, id uint64) error

	WithDeviceLock(
		ctx context.Context,
		dt entity.DeviceType,
		id uint64,
		fn func(ctx context.Context, dev *entity.Device, tx entity.DeviceTx) error,
	) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	argon2id      hash.Hash
	sealer        keywrap.Sealer
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	mailer        mail.Mail
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	throttle throttle.Policy
	cooldown throttle.CooldownPolicy
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Argon2ID      hash.Hash
	Sealer        keywrap.Sealer
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Mailer        mail.Mail
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		argon2id:      dep.Argon2ID,
		sealer:        dep.Sealer,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		mailer:        dep.Mailer,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		throttle: throttle.Policy{
			Factor:    dep.Config.GetUint32("modules.device.throttle_factor"),
			BaseDelay: throttle.DefaultBaseDelay,
		},
		cooldown: throttle.CooldownPolicy{
			Duration: dep.Config.GetSecond("modules.device.email_cooldown_seconds"),
		},
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("device.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// ownedDevice loads a device and checks it belongs to the authenticated user.
// A device owned by someone else surfaces as not found so the endpoint does
// not leak which device IDs exist.
func (s *Usecase) ownedDevice(ctx context.Context, clm *jwt.Claims, persistentID string) (*entity.Device, error) {
	dt, id, err := entity.ParsePersistentID(persistentID)
	if err != nil {
		slog.WarnContext(ctx, "malformed persistent device id", "persistent_id", persistentID)
		return nil, goerror.NewInvalidFormat("malformed device id")
	}

	dev, err := s.repoDB.GetDevice(ctx, dt, id)
	if err != nil {
		return nil, s.mapDeviceError(ctx, err, persistentID)
	}

	if dev.UserID != clm.UserID {
		slog.WarnContext(ctx, "device not owned by user", "persistent_id", persistentID, "user_id", clm.UserID)
		return nil, goerror.NewBusiness("device not found", goerror.CodeNotFound)
	}

	return dev, nil
}

func (s *Usecase) mapDeviceError(ctx context.Context, err error, persistentID string) error {
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "device not found", "persistent_id", persistentID)
		return goerror.NewBusiness("device not found", goerror.CodeNotFound)
	}

	slog.ErrorContext(ctx, "failed to repo get device", "persistent_id", persistentID, "error", err)

	return goerror.NewServer(err)
}

func (s *Usecase) publishTokenVerified(ctx context.Context, dev *entity.Device, verified bool, reason string) {
	msg := TokenVerifiedEvent{
		UserID:       dev.UserID,
		PersistentID: dev.PersistentID(),
		DeviceType:   dev.Type.String(),
		Verified:     verified,
		Reason:       reason,
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishTokenVerified(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish token verified event",
				"persistent_id", msg.PersistentID, "error", err)
			return err
		}
		return nil
	})
}

func (s *Usecase) publishChallengeGenerated(ctx context.Context, dev *entity.Device) {
	msg := ChallengeGeneratedEvent{
		UserID:       dev.UserID,
		PersistentID: dev.PersistentID(),
		DeviceType:   dev.Type.String(),
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishChallengeGenerated(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish challenge generated event",
				"persistent_id", msg.PersistentID, "error", err)
			return err
		}
		return nil
	})
}
