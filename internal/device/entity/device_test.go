package entity

import (
	"errors"
	"testing"
	"time"
)

func TestPersistentIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		dev  Device
		want string
	}{
		{"hotp", Device{ID: 42, Type: DeviceTypeHOTP}, "hotp/42"},
		{"totp", Device{ID: 7, Type: DeviceTypeTOTP}, "totp/7"},
		{"email", Device{ID: 9001, Type: DeviceTypeEmail}, "email/9001"},
		{"static", Device{ID: 1, Type: DeviceTypeStatic}, "static/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dev.PersistentID()
			if got != tt.want {
				t.Fatalf("PersistentID() = %q, want %q", got, tt.want)
			}

			dt, id, err := ParsePersistentID(got)
			if err != nil {
				t.Fatalf("ParsePersistentID() error = %v", err)
			}
			if dt != tt.dev.Type || id != tt.dev.ID {
				t.Errorf("ParsePersistentID() = (%v, %d), want (%v, %d)", dt, id, tt.dev.Type, tt.dev.ID)
			}
		})
	}
}

func TestParsePersistentIDMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no separator", "hotp42"},
		{"unknown type", "sms/42"},
		{"non numeric id", "hotp/abc"},
		{"negative id", "hotp/-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParsePersistentID(tt.in); !errors.Is(err, ErrMalformedPersistentID) {
				t.Errorf("ParsePersistentID(%q) error = %v, want ErrMalformedPersistentID", tt.in, err)
			}
		})
	}
}

func TestDeviceTypeFromString(t *testing.T) {
	for _, dt := range []DeviceType{DeviceTypeHOTP, DeviceTypeTOTP, DeviceTypeEmail, DeviceTypeStatic} {
		if got := DeviceTypeFromString(dt.String()); got != dt {
			t.Errorf("DeviceTypeFromString(%q) = %v, want %v", dt.String(), got, dt)
		}
	}
	if got := DeviceTypeFromString("pager"); !got.IsUnknown() {
		t.Errorf("DeviceTypeFromString(pager) = %v, want unknown", got)
	}
}

func TestDeviceTypeInteractive(t *testing.T) {
	tests := []struct {
		dt   DeviceType
		want bool
	}{
		{DeviceTypeHOTP, false},
		{DeviceTypeTOTP, false},
		{DeviceTypeEmail, true},
		{DeviceTypeStatic, false},
	}

	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			if got := tt.dt.Interactive(); got != tt.want {
				t.Errorf("Interactive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSideChannelState(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	st := &SideChannelState{}

	if st.Outstanding(now) {
		t.Error("Outstanding() = true with no token set")
	}

	st.SetToken("hash-1", now, 5*time.Minute)
	if !st.Outstanding(now.Add(time.Minute)) {
		t.Error("Outstanding() = false within validity")
	}
	if st.Outstanding(now.Add(10 * time.Minute)) {
		t.Error("Outstanding() = true after expiry")
	}
	if !st.LastGeneratedAt.Equal(now) {
		t.Errorf("LastGeneratedAt = %v, want %v", st.LastGeneratedAt, now)
	}

	st.Consume()
	if st.Outstanding(now.Add(time.Minute)) {
		t.Error("Outstanding() = true after Consume")
	}
}

func TestStaticTokenUsed(t *testing.T) {
	tok := StaticToken{}
	if tok.Used() {
		t.Error("Used() = true for fresh token")
	}

	tok.UsedAt = time.Now()
	if !tok.Used() {
		t.Error("Used() = false after consumption")
	}
}
