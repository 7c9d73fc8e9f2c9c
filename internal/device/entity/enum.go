package entity

// DeviceType identifies the verification mechanism a device implements.
type DeviceType int16

const (
	// DeviceTypeUnknown means the type is not known / not set.
	DeviceTypeUnknown DeviceType = 0

	// DeviceTypeHOTP is a counter-based token generator (RFC 4226).
	DeviceTypeHOTP DeviceType = 1

	// DeviceTypeTOTP is a time-based token generator (RFC 6238).
	DeviceTypeTOTP DeviceType = 2

	// DeviceTypeEmail delivers single-use tokens over email.
	DeviceTypeEmail DeviceType = 3

	// DeviceTypeStatic holds pre-generated single-use backup tokens.
	DeviceTypeStatic DeviceType = 4
)

func (dt DeviceType) String() string {
	switch dt {
	case DeviceTypeHOTP:
		return "hotp"
	case DeviceTypeTOTP:
		return "totp"
	case DeviceTypeEmail:
		return "email"
	case DeviceTypeStatic:
		return "static"
	default:
		return "unknown"
	}
}

func (dt DeviceType) IsUnknown() bool {
	switch dt {
	case DeviceTypeHOTP, DeviceTypeTOTP, DeviceTypeEmail, DeviceTypeStatic:
		return false
	default:
		return true
	}
}

// Interactive reports whether the device type supports generating a
// challenge that is delivered to the user out of band.
func (dt DeviceType) Interactive() bool {
	return dt == DeviceTypeEmail
}

// DeviceTypeFromString parses a device type name.
func DeviceTypeFromString(s string) DeviceType {
	switch s {
	case "hotp":
		return DeviceTypeHOTP
	case "totp":
		return DeviceTypeTOTP
	case "email":
		return DeviceTypeEmail
	case "static":
		return DeviceTypeStatic
	default:
		return DeviceTypeUnknown
	}
}
