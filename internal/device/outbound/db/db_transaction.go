package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/otpd/internal/device/entity"
)

// querier is the subset of pgx operations shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type deviceTx struct {
	db *DB
	tx pgx.Tx
}

func (t *deviceTx) SaveState(ctx context.Context, dev *entity.Device) error {
	return t.db.mapError(t.db.saveDeviceState(ctx, t.tx, dev))
}

func (t *deviceTx) StaticTokens(ctx context.Context, deviceID uint64) ([]entity.StaticToken, error) {
	toks, err := t.db.staticTokens(ctx, t.tx, deviceID)
	if err != nil {
		return nil, t.db.mapError(err)
	}
	return toks, nil
}

func (t *deviceTx) MarkStaticTokenUsed(ctx context.Context, tokenID uint64, usedAt time.Time) error {
	return t.db.mapError(t.db.markStaticTokenUsed(ctx, t.tx, tokenID, usedAt))
}

// WithDeviceLock runs fn with the device row locked (SELECT ... FOR UPDATE),
// so concurrent verifications against the same device serialize. Lock
// conflicts surface as goerror.ErrSerialization for the caller to retry.
func (s *DB) WithDeviceLock(
	ctx context.Context,
	dt entity.DeviceType,
	id uint64,
	fn func(ctx context.Context, dev *entity.Device, tx entity.DeviceTx) error,
) (err error) {
	ctx, span := s.startSpan(ctx, "WithDeviceLock")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	row := tx.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM otp_devices WHERE id = $1 AND type = $2 FOR UPDATE`,
		int64(id), int16(dt),
	)

	dev, err := scanDevice(row)
	if err != nil {
		return s.mapError(err)
	}

	if err = fn(ctx, dev, &deviceTx{db: s, tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) staticTokens(ctx context.Context, q querier, deviceID uint64) ([]entity.StaticToken, error) {
	rows, err := q.Query(ctx,
		`SELECT id, device_id, token_hash, used_at, created_at
		 FROM otp_static_tokens WHERE device_id = $1 ORDER BY id`,
		int64(deviceID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	toks := make([]entity.StaticToken, 0)
	for rows.Next() {
		var (
			tok       entity.StaticToken
			id, devID int64
			usedAt    *time.Time
			createdAt time.Time
		)
		if err := rows.Scan(&id, &devID, &tok.TokenHash, &usedAt, &createdAt); err != nil {
			return nil, err
		}
		tok.ID = uint64(id)
		tok.DeviceID = uint64(devID)
		tok.CreatedAt = createdAt
		if usedAt != nil {
			tok.UsedAt = *usedAt
		}
		toks = append(toks, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return toks, nil
}
