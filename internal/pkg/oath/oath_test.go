package oath

import (
	"strings"
	"testing"
)

// rfc4226Key is the shared secret from RFC 4226 Appendix D.
var rfc4226Key = []byte("12345678901234567890")

func TestHOTPKnownAnswers(t *testing.T) {
	want := []uint32{
		755224, 287082, 359152, 969429, 338314,
		254676, 287922, 162583, 399871, 520489,
	}

	for counter, expected := range want {
		got := HOTP(rfc4226Key, uint64(counter), 6)
		if got != expected {
			t.Errorf("HOTP(counter=%d) = %d, want %d", counter, got, expected)
		}
	}
}

func TestHOTPRange(t *testing.T) {
	for _, digits := range []int{6, 8} {
		limit := uint32(1)
		for range digits {
			limit *= 10
		}

		for counter := uint64(0); counter < 1000; counter++ {
			if got := HOTP(rfc4226Key, counter, digits); got >= limit {
				t.Fatalf("HOTP(counter=%d, digits=%d) = %d, outside [0, %d)", counter, digits, got, limit)
			}
		}
	}
}

func TestHOTPEmptyKey(t *testing.T) {
	// A zero-length key is allowed; validation is the caller's concern.
	got := HOTP(nil, 0, 6)
	if got >= 1000000 {
		t.Fatalf("HOTP(empty key) = %d, outside token range", got)
	}
}

func TestTOTPStep(t *testing.T) {
	tests := []struct {
		name  string
		now   int64
		step  uint
		t0    int64
		drift int64
		want  int64
	}{
		{name: "epoch", now: 0, step: 30, t0: 0, drift: 0, want: 0},
		{name: "one step in", now: 30, step: 30, t0: 0, drift: 0, want: 1},
		{name: "just before boundary", now: 59, step: 30, t0: 0, drift: 0, want: 1},
		{name: "with offset t0", now: 90, step: 30, t0: 30, drift: 0, want: 2},
		{name: "with drift", now: 90, step: 30, t0: 0, drift: -2, want: 1},
		{name: "before t0 floors down", now: -1, step: 30, t0: 0, drift: 0, want: -1},
		{name: "zero step falls back to default", now: 60, step: 0, t0: 0, drift: 0, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TOTPStep(tc.now, tc.step, tc.t0, tc.drift); got != tc.want {
				t.Errorf("TOTPStep(%d, %d, %d, %d) = %d, want %d", tc.now, tc.step, tc.t0, tc.drift, got, tc.want)
			}
		})
	}
}

func TestTOTPMatchesHOTPAtStep(t *testing.T) {
	// RFC 6238: at time 59 with a 30s step the step index is 1,
	// so the token must equal HOTP at counter 1.
	if got, want := TOTP(rfc4226Key, 59, 30, 0, 6, 0), HOTP(rfc4226Key, 1, 6); got != want {
		t.Fatalf("TOTP(now=59) = %d, want %d", got, want)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		code   uint32
		digits int
		want   string
	}{
		{code: 755224, digits: 6, want: "755224"},
		{code: 42, digits: 6, want: "000042"},
		{code: 42, digits: 8, want: "00000042"},
		{code: 0, digits: 6, want: "000000"},
	}

	for _, tc := range tests {
		if got := Format(tc.code, tc.digits); got != tc.want {
			t.Errorf("Format(%d, %d) = %q, want %q", tc.code, tc.digits, got, tc.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("000042", "000042") {
		t.Error("Equal rejected identical tokens")
	}
	if Equal("000042", "000043") {
		t.Error("Equal accepted different tokens")
	}
	if Equal("000042", "42") {
		t.Error("Equal accepted tokens of different width")
	}
	if !EqualCode(42, 6, "000042") {
		t.Error("EqualCode rejected a matching code")
	}
}

func TestRandomDecimal(t *testing.T) {
	for _, digits := range []int{6, 8} {
		for range 32 {
			tok, err := RandomDecimal(digits)
			if err != nil {
				t.Fatalf("RandomDecimal(%d): %v", digits, err)
			}
			if len(tok) != digits {
				t.Fatalf("RandomDecimal(%d) = %q, want %d digits", digits, tok, digits)
			}
			for _, r := range tok {
				if r < '0' || r > '9' {
					t.Fatalf("RandomDecimal(%d) = %q, contains non-digit %q", digits, tok, r)
				}
			}
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	key, err := RandomKey(20)
	if err != nil {
		t.Fatalf("RandomKey: %v", err)
	}
	if len(key) != 20 {
		t.Fatalf("RandomKey returned %d bytes, want 20", len(key))
	}

	decoded, err := DecodeKey(EncodeKey(key))
	if err != nil {
		t.Fatalf("DecodeKey: %v", err)
	}
	if string(decoded) != string(key) {
		t.Fatal("hex round trip changed the key")
	}
}

func TestKeyToBase32(t *testing.T) {
	got := KeyToBase32(rfc4226Key)
	if strings.Contains(got, "=") {
		t.Fatalf("KeyToBase32 = %q, want unpadded output", got)
	}
	if got != "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ" {
		t.Fatalf("KeyToBase32 = %q", got)
	}
}
