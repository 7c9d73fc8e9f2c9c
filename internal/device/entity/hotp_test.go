package entity

import "testing"

// Test vectors from RFC 4226 appendix D, key "12345678901234567890".
var hotpKey = []byte("12345678901234567890")

var hotpTokens = []string{
	"755224", "287082", "359152", "969429", "338314",
	"254676", "287922", "162583", "399871", "520489",
}

func TestHOTPStateVerify(t *testing.T) {
	st := &HOTPState{Counter: 0, Digits: 6, Tolerance: DefaultHOTPTolerance}

	if !st.Verify(hotpKey, hotpTokens[0]) {
		t.Fatal("Verify() = false for the expected counter")
	}
	if st.Counter != 1 {
		t.Errorf("Counter = %d after success, want 1", st.Counter)
	}
}

func TestHOTPStateWindowSkip(t *testing.T) {
	st := &HOTPState{Counter: 0, Digits: 6, Tolerance: 5}

	// The user burned tokens 0-2 without submitting them.
	if !st.Verify(hotpKey, hotpTokens[3]) {
		t.Fatal("Verify() = false for a token inside the window")
	}
	if st.Counter != 4 {
		t.Errorf("Counter = %d, want 4", st.Counter)
	}

	// Skipped-over tokens are burned and can never verify.
	if st.Verify(hotpKey, hotpTokens[2]) {
		t.Error("Verify() = true for a token behind the counter")
	}
	if st.Counter != 4 {
		t.Errorf("Counter = %d after failure, want 4", st.Counter)
	}
}

func TestHOTPStateBeyondWindow(t *testing.T) {
	st := &HOTPState{Counter: 0, Digits: 6, Tolerance: 2}

	if st.Verify(hotpKey, hotpTokens[5]) {
		t.Error("Verify() = true for a token beyond the window")
	}
	if st.Counter != 0 {
		t.Errorf("Counter = %d after failure, want 0", st.Counter)
	}
}

func TestHOTPStateReplay(t *testing.T) {
	st := &HOTPState{Counter: 0, Digits: 6, Tolerance: 5}

	if !st.Verify(hotpKey, hotpTokens[0]) {
		t.Fatal("first Verify() = false")
	}
	if st.Verify(hotpKey, hotpTokens[0]) {
		t.Error("second Verify() = true, token replayed")
	}
}

func TestHOTPStateWrongKey(t *testing.T) {
	st := &HOTPState{Counter: 0, Digits: 6, Tolerance: 5}

	if st.Verify([]byte("00000000000000000000"), hotpTokens[0]) {
		t.Error("Verify() = true with a different key")
	}
}
