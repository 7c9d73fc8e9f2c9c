package entity

import (
	"testing"
	"time"
)

func newTOTPState() *TOTPState {
	return &TOTPState{Step: 30, T0: 0, Digits: 6, Tolerance: 1, Drift: 0, LastT: -1}
}

func TestTOTPStateVerify(t *testing.T) {
	st := newTOTPState()

	// At 59s the current step is 1, whose token equals the RFC 4226 vector
	// for counter 1.
	now := time.Unix(59, 0)
	if !st.Verify(hotpKey, hotpTokens[1], now, true) {
		t.Fatal("Verify() = false for the current step")
	}
	if st.LastT != 1 {
		t.Errorf("LastT = %d, want 1", st.LastT)
	}
	if st.Drift != 0 {
		t.Errorf("Drift = %d after centered match, want 0", st.Drift)
	}
}

func TestTOTPStateReplay(t *testing.T) {
	st := newTOTPState()
	now := time.Unix(59, 0)

	if !st.Verify(hotpKey, hotpTokens[1], now, true) {
		t.Fatal("first Verify() = false")
	}

	// The same token in the same step never verifies twice, even though the
	// step is still inside the window.
	if st.Verify(hotpKey, hotpTokens[1], now, true) {
		t.Error("second Verify() = true, token replayed")
	}
	if st.Verify(hotpKey, hotpTokens[1], now.Add(10*time.Second), true) {
		t.Error("Verify() = true for replay later in the same step")
	}
}

func TestTOTPStateDriftForward(t *testing.T) {
	st := newTOTPState()

	// Generator clock runs one step ahead: at 59s it produces the step-2 token.
	now := time.Unix(59, 0)
	if !st.Verify(hotpKey, hotpTokens[2], now, true) {
		t.Fatal("Verify() = false for a token one step ahead")
	}
	if st.LastT != 2 {
		t.Errorf("LastT = %d, want 2", st.LastT)
	}
	if st.Drift != 1 {
		t.Errorf("Drift = %d, want 1", st.Drift)
	}

	// With the drift learned, the generator's next token matches at offset 0.
	if !st.Verify(hotpKey, hotpTokens[3], now.Add(30*time.Second), true) {
		t.Error("Verify() = false after drift adjustment")
	}
	if st.Drift != 1 {
		t.Errorf("Drift = %d after centered match, want 1", st.Drift)
	}
}

func TestTOTPStateDriftBackward(t *testing.T) {
	st := newTOTPState()

	// Generator clock runs one step behind: at 65s (step 2) it still emits
	// the step-1 token.
	now := time.Unix(65, 0)
	if !st.Verify(hotpKey, hotpTokens[1], now, true) {
		t.Fatal("Verify() = false for a token one step behind")
	}
	if st.Drift != -1 {
		t.Errorf("Drift = %d, want -1", st.Drift)
	}
}

func TestTOTPStateNoSync(t *testing.T) {
	st := newTOTPState()

	now := time.Unix(59, 0)
	if !st.Verify(hotpKey, hotpTokens[2], now, false) {
		t.Fatal("Verify() = false for a token one step ahead")
	}
	if st.Drift != 0 {
		t.Errorf("Drift = %d with sync disabled, want 0", st.Drift)
	}
}

func TestTOTPStateOutsideTolerance(t *testing.T) {
	st := newTOTPState()

	// Step-3 token at step 1 is two steps ahead, outside tolerance 1.
	now := time.Unix(59, 0)
	if st.Verify(hotpKey, hotpTokens[3], now, true) {
		t.Error("Verify() = true for a token outside tolerance")
	}
	if st.LastT != -1 {
		t.Errorf("LastT = %d after failure, want -1", st.LastT)
	}
}

func TestTOTPStateEarlierStepAfterAdvance(t *testing.T) {
	st := newTOTPState()

	now := time.Unix(59, 0)
	if !st.Verify(hotpKey, hotpTokens[2], now, true) {
		t.Fatal("Verify() = false for a token one step ahead")
	}

	// Step 1 is inside the window but at or below LastT, so it is rejected.
	if st.Verify(hotpKey, hotpTokens[1], now, true) {
		t.Error("Verify() = true for a step at or below the high-water mark")
	}
}
