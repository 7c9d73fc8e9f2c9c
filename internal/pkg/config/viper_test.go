package config

import (
	"testing"
	"time"
)

func TestViperFromBytes(t *testing.T) {
	raw := []byte(`
server:
  port: 8080
  read_timeout: 15
otp:
  totp_step: 30
  totp_sync: true
  throttle_factor: 1
  issuer: otpd
  key: c2VjcmV0LWtleQ==
  topics: otp.verified,otp.generated
  labels: env:test,region:local
`)

	cfg, err := NewViperFromBytes("yaml", raw)
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	defer cfg.Close()

	if got := cfg.GetInt("server.port"); got != 8080 {
		t.Errorf("GetInt(server.port) = %d, want 8080", got)
	}
	if got := cfg.GetSecond("server.read_timeout"); got != 15*time.Second {
		t.Errorf("GetSecond(server.read_timeout) = %v, want 15s", got)
	}
	if got := cfg.GetUint32("otp.throttle_factor"); got != 1 {
		t.Errorf("GetUint32(otp.throttle_factor) = %d, want 1", got)
	}
	if !cfg.GetBool("otp.totp_sync") {
		t.Error("GetBool(otp.totp_sync) = false, want true")
	}
	if got := cfg.GetString("otp.issuer"); got != "otpd" {
		t.Errorf("GetString(otp.issuer) = %q, want %q", got, "otpd")
	}
	if got := string(cfg.GetBinary("otp.key")); got != "secret-key" {
		t.Errorf("GetBinary(otp.key) = %q, want %q", got, "secret-key")
	}
	if got := cfg.GetArray("otp.topics"); len(got) != 2 || got[0] != "otp.verified" {
		t.Errorf("GetArray(otp.topics) = %v, want [otp.verified otp.generated]", got)
	}
	if got := cfg.GetMap("otp.labels"); got["env"] != "test" || got["region"] != "local" {
		t.Errorf("GetMap(otp.labels) = %v", got)
	}
}

func TestViperFromBytesMissingType(t *testing.T) {
	if _, err := NewViperFromBytes("  ", []byte("a: 1")); err == nil {
		t.Error("expected error for empty config type")
	}
}
