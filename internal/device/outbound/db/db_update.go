package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

func (s *DB) ConfirmDevice(ctx context.Context, dt entity.DeviceType, id uint64) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmDevice")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE otp_devices SET confirmed = true, updated_at = now() WHERE id = $1 AND type = $2`,
		int64(id), int16(dt),
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteDevice(ctx context.Context, dt entity.DeviceType, id uint64, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteDevice")
	defer func() { s.endSpan(span, err) }()

	if dt == entity.DeviceTypeStatic {
		if _, err := s.conn.Exec(ctx,
			`DELETE FROM otp_static_tokens WHERE device_id = $1`, int64(id),
		); err != nil {
			return s.mapError(err)
		}
	}

	tag, err := s.conn.Exec(ctx,
		`DELETE FROM otp_devices WHERE id = $1 AND type = $2 AND user_id = $3`,
		int64(id), int16(dt), userID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ResetThrottle clears the failure counter and, for side-channel devices, the
// generation cooldown. This is the administrative unlock operation.
func (s *DB) ResetThrottle(ctx context.Context, dt entity.DeviceType, id uint64) (err error) {
	ctx, span := s.startSpan(ctx, "ResetThrottle")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE otp_devices
		 SET failure_count = 0, failure_timestamp = NULL, sc_last_generated_at = NULL, updated_at = now()
		 WHERE id = $1 AND type = $2`,
		int64(id), int16(dt),
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) saveDeviceState(ctx context.Context, q querier, dev *entity.Device) error {
	var (
		failureTS  pgtype.Timestamptz
		lastUsedAt pgtype.Timestamptz

		hotpCounter pgtype.Int8

		totpDrift pgtype.Int8
		totpLastT pgtype.Int8

		scTokenHash       pgtype.Text
		scValidUntil      pgtype.Timestamptz
		scLastGeneratedAt pgtype.Timestamptz
	)

	if !dev.FailureTimestamp.IsZero() {
		failureTS = pgtype.Timestamptz{Valid: true, Time: dev.FailureTimestamp}
	}
	if !dev.LastUsedAt.IsZero() {
		lastUsedAt = pgtype.Timestamptz{Valid: true, Time: dev.LastUsedAt}
	}

	switch dev.Type {
	case entity.DeviceTypeHOTP:
		hotpCounter = pgtype.Int8{Valid: true, Int64: int64(dev.HOTP.Counter)}
	case entity.DeviceTypeTOTP:
		totpDrift = pgtype.Int8{Valid: true, Int64: dev.TOTP.Drift}
		totpLastT = pgtype.Int8{Valid: true, Int64: dev.TOTP.LastT}
	case entity.DeviceTypeEmail:
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

	tag, err := q.Exec(ctx,
		`UPDATE otp_devices SET
			confirmed = $2,
			failure_count = $3,
			failure_timestamp = $4,
			last_used_at = $5,
			hotp_counter = COALESCE($6, hotp_counter),
			totp_drift = COALESCE($7, totp_drift),
			totp_last_t = COALESCE($8, totp_last_t),
			sc_token_hash = $9,
			sc_valid_until = $10,
			sc_last_generated_at = $11,
			updated_at = now()
		 WHERE id = $1`,
		int64(dev.ID), dev.Confirmed,
		int32(dev.FailureCount), failureTS, lastUsedAt,
		hotpCounter, totpDrift, totpLastT,
		scTokenHash, scValidUntil, scLastGeneratedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) markStaticTokenUsed(ctx context.Context, q querier, tokenID uint64, usedAt time.Time) error {
	tag, err := q.Exec(ctx,
		`UPDATE otp_static_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`,
		int64(tokenID), usedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
