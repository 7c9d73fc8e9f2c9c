package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedPersistentID indicates a persistent device ID that cannot be parsed.
var ErrMalformedPersistentID = errors.New("device: malformed persistent id")

// Device is a registered OTP device owned by a single user.
//
// Exactly one of the type-specific state structs is populated, matching Type.
type Device struct {
	ID        uint64
	UserID    int64
	Name      string
	Type      DeviceType
	Confirmed bool

	// KeyCiphertext is the sealed OTP key for key-bearing device types. The
	// raw key only exists in memory after unsealing.
	KeyCiphertext []byte

	// Email is the delivery address for side-channel devices.
	Email string

	FailureCount     uint32
	FailureTimestamp time.Time

	// LastUsedAt is when the device last verified a token successfully,
	// zero when it never has.
	LastUsedAt time.Time

	HOTP        *HOTPState
	TOTP        *TOTPState
	SideChannel *SideChannelState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PersistentID returns the stable cross-type device handle ("<type>/<id>").
func (d *Device) PersistentID() string {
	return d.Type.String() + "/" + strconv.FormatUint(d.ID, 10)
}

// ParsePersistentID splits a persistent device ID into its type and numeric ID.
func ParsePersistentID(s string) (DeviceType, uint64, error) {
	kind, rawID, ok := strings.Cut(s, "/")
	if !ok {
		return DeviceTypeUnknown, 0, ErrMalformedPersistentID
	}

	dt := DeviceTypeFromString(kind)
	if dt.IsUnknown() {
		return DeviceTypeUnknown, 0, fmt.Errorf("%w: unknown type %q", ErrMalformedPersistentID, kind)
	}

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return DeviceTypeUnknown, 0, fmt.Errorf("%w: %q", ErrMalformedPersistentID, rawID)
	}

	return dt, id, nil
}

// StaticToken is a single-use backup token belonging to a static device.
//
// TokenHash is the Argon2id hash of the plaintext token; the plaintext is only
// shown once, at creation time.
type StaticToken struct {
	ID        uint64
	DeviceID  uint64
	TokenHash string
	UsedAt    time.Time
	CreatedAt time.Time
}

// Used reports whether the token has already been consumed.
func (t *StaticToken) Used() bool {
	return !t.UsedAt.IsZero()
}
