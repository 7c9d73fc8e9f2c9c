package db

import (
	"context"

	"github.com/shandysiswandi/otpd/internal/device/entity"
)

func (s *DB) GetDevice(ctx context.Context, dt entity.DeviceType, id uint64) (dev *entity.Device, err error) {
	ctx, span := s.startSpan(ctx, "GetDevice")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM otp_devices WHERE id = $1 AND type = $2`,
		int64(id), int16(dt),
	)

	dev, err = scanDevice(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return dev, nil
}

func (s *DB) ListDevices(ctx context.Context, userID int64, confirmedOnly bool) (devs []entity.Device, err error) {
	ctx, span := s.startSpan(ctx, "ListDevices")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+deviceColumns+` FROM otp_devices
		 WHERE user_id = $1 AND ($2 = false OR confirmed = true)
		 ORDER BY id`,
		userID, confirmedOnly,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	devs = make([]entity.Device, 0)
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		devs = append(devs, *dev)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return devs, nil
}

func (s *DB) GetStaticTokens(ctx context.Context, deviceID uint64) (toks []entity.StaticToken, err error) {
	ctx, span := s.startSpan(ctx, "GetStaticTokens")
	defer func() { s.endSpan(span, err) }()

	return s.staticTokens(ctx, s.conn, deviceID)
}
