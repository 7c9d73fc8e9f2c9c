package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpd/internal/device/entity"
)

func (s *DB) CreateDevice(ctx context.Context, dev *entity.Device) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDevice")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.insertDevice(ctx, s.conn, dev))
	return err
}

// NewStaticDevice creates a static device together with its initial token set.
func (s *DB) NewStaticDevice(ctx context.Context, dev *entity.Device, tokens []entity.StaticToken) (err error) {
	ctx, span := s.startSpan(ctx, "NewStaticDevice")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if err := s.insertDevice(ctx, tx, dev); err != nil {
		return s.mapError(err)
	}

	if err := s.insertStaticTokens(ctx, tx, tokens); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// AddStaticTokens appends tokens to an existing static device.
func (s *DB) AddStaticTokens(ctx context.Context, tokens []entity.StaticToken) (err error) {
	ctx, span := s.startSpan(ctx, "AddStaticTokens")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.insertStaticTokens(ctx, s.conn, tokens))
	return err
}

func (s *DB) insertDevice(ctx context.Context, q querier, dev *entity.Device) error {
	var (
		keyCiphertext []byte
		email         pgtype.Text
		digits        pgtype.Int2

		hotpCounter   pgtype.Int8
		hotpTolerance pgtype.Int4

		totpStep      pgtype.Int4
		totpT0        pgtype.Int8
		totpTolerance pgtype.Int4
		totpDrift     pgtype.Int8
		totpLastT     pgtype.Int8

		scTokenHash       pgtype.Text
		scValidUntil      pgtype.Timestamptz
		scLastGeneratedAt pgtype.Timestamptz
	)

	keyCiphertext = dev.KeyCiphertext

	switch dev.Type {
	case entity.DeviceTypeHOTP:
		digits = pgtype.Int2{Valid: true, Int16: int16(dev.HOTP.Digits)}
		hotpCounter = pgtype.Int8{Valid: true, Int64: int64(dev.HOTP.Counter)}
		hotpTolerance = pgtype.Int4{Valid: true, Int32: int32(dev.HOTP.Tolerance)}

	case entity.DeviceTypeTOTP:
		digits = pgtype.Int2{Valid: true, Int16: int16(dev.TOTP.Digits)}
		totpStep = pgtype.Int4{Valid: true, Int32: int32(dev.TOTP.Step)}
		totpT0 = pgtype.Int8{Valid: true, Int64: dev.TOTP.T0}
		totpTolerance = pgtype.Int4{Valid: true, Int32: int32(dev.TOTP.Tolerance)}
		totpDrift = pgtype.Int8{Valid: true, Int64: dev.TOTP.Drift}
		totpLastT = pgtype.Int8{Valid: true, Int64: dev.TOTP.LastT}

	case entity.DeviceTypeEmail:
		email = pgtype.Text{Valid: true, String: dev.Email}
		if dev.SideChannel != nil {
			if dev.SideChannel.TokenHash != "" {
				scTokenHash = pgtype.Text{Valid: true, String: dev.SideChannel.TokenHash}
			}
			if !dev.SideChannel.ValidUntil.IsZero() {
				scValidUntil = pgtype.Timestamptz{Valid: true, Time: dev.SideChannel.ValidUntil}
			}
			if !dev.SideChannel.LastGeneratedAt.IsZero() {
				scLastGeneratedAt = pgtype.Timestamptz{Valid: true, Time: dev.SideChannel.LastGeneratedAt}
			}
		}
	}

	_, err := q.Exec(ctx,
		`INSERT INTO otp_devices (
			id, user_id, name, type, confirmed,
			failure_count, failure_timestamp, last_used_at,
			key_ciphertext, email, digits,
			hotp_counter, hotp_tolerance,
			totp_step, totp_t0, totp_tolerance, totp_drift, totp_last_t,
			sc_token_hash, sc_valid_until, sc_last_generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULL, NULL, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		int64(dev.ID), dev.UserID, dev.Name, int16(dev.Type), dev.Confirmed,
		int32(dev.FailureCount),
		keyCiphertext, email, digits,
		hotpCounter, hotpTolerance,
		totpStep, totpT0, totpTolerance, totpDrift, totpLastT,
		scTokenHash, scValidUntil, scLastGeneratedAt,
	)

	return err
}

func (s *DB) insertStaticTokens(ctx context.Context, q querier, tokens []entity.StaticToken) error {
	for _, tok := range tokens {
		if _, err := q.Exec(ctx,
			`INSERT INTO otp_static_tokens (id, device_id, token_hash) VALUES ($1, $2, $3)`,
			int64(tok.ID), int64(tok.DeviceID), tok.TokenHash,
		); err != nil {
			return err
		}
	}

	return nil
}
