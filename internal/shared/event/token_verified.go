package event

const TokenVerifiedDestination string = "otp_token_verified"

// TokenVerifiedMessage is published after every verification attempt so
// downstream consumers (audit, anomaly detection) see both outcomes.
type TokenVerifiedMessage struct {
	UserID       int64  `json:"user_id"`
	PersistentID string `json:"persistent_id"`
	DeviceType   string `json:"device_type"`
	Verified     bool   `json:"verified"`
	Reason       string `json:"reason,omitempty"`
}
