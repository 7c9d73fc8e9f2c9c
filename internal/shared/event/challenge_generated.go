package event

const ChallengeGeneratedDestination string = "otp_challenge_generated"

// ChallengeGeneratedMessage is published when a side-channel device generates
// and dispatches a token. The token itself is never part of the event.
type ChallengeGeneratedMessage struct {
	UserID       int64  `json:"user_id"`
	PersistentID string `json:"persistent_id"`
	DeviceType   string `json:"device_type"`
}
