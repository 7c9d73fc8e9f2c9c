package entity

import (
	"context"
	"time"
)

// DeviceTx exposes the writes allowed while a device row is locked.
type DeviceTx interface {
	// SaveState persists the device's mutable verification state.
	SaveState(ctx context.Context, dev *Device) error
	// StaticTokens lists the device's static tokens inside the transaction.
	StaticTokens(ctx context.Context, deviceID uint64) ([]StaticToken, error)
	// MarkStaticTokenUsed consumes a single static token.
	MarkStaticTokenUsed(ctx context.Context, tokenID uint64, usedAt time.Time) error
}
