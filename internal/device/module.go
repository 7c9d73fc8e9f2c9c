package device

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpd/internal/device/inbound"
	"github.com/shandysiswandi/otpd/internal/device/outbound/db"
	"github.com/shandysiswandi/otpd/internal/device/outbound/mq"
	"github.com/shandysiswandi/otpd/internal/device/usecase"
	"github.com/shandysiswandi/otpd/internal/pkg/clock"
	"github.com/shandysiswandi/otpd/internal/pkg/config"
	"github.com/shandysiswandi/otpd/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpd/internal/pkg/hash"
	"github.com/shandysiswandi/otpd/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpd/internal/pkg/instrument"
	"github.com/shandysiswandi/otpd/internal/pkg/keywrap"
	"github.com/shandysiswandi/otpd/internal/pkg/mail"
	"github.com/shandysiswandi/otpd/internal/pkg/messaging"
	"github.com/shandysiswandi/otpd/internal/pkg/router"
	"github.com/shandysiswandi/otpd/internal/pkg/uid"
	"github.com/shandysiswandi/otpd/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Argon2ID    hash.Hash                  `validate:"required"`
	Sealer      keywrap.Sealer             `validate:"required"`
	Mailer      mail.Mail                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbDevice := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbDevice,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Argon2ID:      dep.Argon2ID,
		Sealer:        dep.Sealer,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Mailer:        dep.Mailer,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
