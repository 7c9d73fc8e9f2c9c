package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique_violation → goerror.ErrConflict
// - 40001 serialization_failure → goerror.ErrSerialization (retryable)
// - 40P01 deadlock_detected → goerror.ErrSerialization (retryable)
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "40001", "40P01":
			return goerror.ErrSerialization
		}
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("device.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const deviceColumns = `id, user_id, name, type, confirmed,
	failure_count, failure_timestamp, last_used_at,
	key_ciphertext, email, digits,
	hotp_counter, hotp_tolerance,
	totp_step, totp_t0, totp_tolerance, totp_drift, totp_last_t,
	sc_token_hash, sc_valid_until, sc_last_generated_at,
	created_at, updated_at`

// deviceRow mirrors the otp_devices columns, with per-type columns nullable.
type deviceRow struct {
	ID        int64
	UserID    int64
	Name      string
	Type      int16
	Confirmed bool

	FailureCount     int32
	FailureTimestamp pgtype.Timestamptz
	LastUsedAt       pgtype.Timestamptz

	KeyCiphertext []byte
	Email         pgtype.Text
	Digits        pgtype.Int2

	HOTPCounter   pgtype.Int8
	HOTPTolerance pgtype.Int4

	TOTPStep      pgtype.Int4
	TOTPT0        pgtype.Int8
	TOTPTolerance pgtype.Int4
	TOTPDrift     pgtype.Int8
	TOTPLastT     pgtype.Int8

	SCTokenHash       pgtype.Text
	SCValidUntil      pgtype.Timestamptz
	SCLastGeneratedAt pgtype.Timestamptz

	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func scanDevice(row pgx.Row) (*entity.Device, error) {
	var r deviceRow
	if err := row.Scan(
		&r.ID, &r.UserID, &r.Name, &r.Type, &r.Confirmed,
		&r.FailureCount, &r.FailureTimestamp, &r.LastUsedAt,
		&r.KeyCiphertext, &r.Email, &r.Digits,
		&r.HOTPCounter, &r.HOTPTolerance,
		&r.TOTPStep, &r.TOTPT0, &r.TOTPTolerance, &r.TOTPDrift, &r.TOTPLastT,
		&r.SCTokenHash, &r.SCValidUntil, &r.SCLastGeneratedAt,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	dev := &entity.Device{
		ID:            uint64(r.ID),
		UserID:        r.UserID,
		Name:          r.Name,
		Type:          entity.DeviceType(r.Type),
		Confirmed:     r.Confirmed,
		KeyCiphertext: r.KeyCiphertext,
		Email:         r.Email.String,
		FailureCount:  uint32(r.FailureCount),
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
	if r.FailureTimestamp.Valid {
		dev.FailureTimestamp = r.FailureTimestamp.Time
	}
	if r.LastUsedAt.Valid {
		dev.LastUsedAt = r.LastUsedAt.Time
	}

	switch dev.Type {
	case entity.DeviceTypeHOTP:
		dev.HOTP = &entity.HOTPState{
			Counter:   uint64(r.HOTPCounter.Int64),
			Digits:    int(r.Digits.Int16),
			Tolerance: uint64(r.HOTPTolerance.Int32),
		}
	case entity.DeviceTypeTOTP:
		dev.TOTP = &entity.TOTPState{
			Step:      uint(r.TOTPStep.Int32),
			T0:        r.TOTPT0.Int64,
			Digits:    int(r.Digits.Int16),
			Tolerance: int64(r.TOTPTolerance.Int32),
			Drift:     r.TOTPDrift.Int64,
			LastT:     r.TOTPLastT.Int64,
		}
	case entity.DeviceTypeEmail:
		sc := &entity.SideChannelState{TokenHash: r.SCTokenHash.String}
		if r.SCValidUntil.Valid {
			sc.ValidUntil = r.SCValidUntil.Time
		}
		if r.SCLastGeneratedAt.Valid {
			sc.LastGeneratedAt = r.SCLastGeneratedAt.Time
		}
		dev.SideChannel = sc
	}

	return dev, nil
}
