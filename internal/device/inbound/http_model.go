package inbound

import "time"

type VerifyTokenRequest struct {
	PersistentID string `json:"persistent_id"`
	Token        string `json:"token"`
}

type VerifyTokenResponse struct {
	PersistentID string `json:"persistent_id"`
	DeviceType   string `json:"device_type"`
	Verified     bool   `json:"verified"`
}

func (VerifyTokenResponse) Message() string {
	return "Token verified."
}

type DeviceCreateRequest struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Digits int    `json:"digits,omitempty"`
}

type DeviceCreateResponse struct {
	PersistentID string   `json:"persistent_id"`
	DeviceType   string   `json:"device_type"`
	Confirmed    bool     `json:"confirmed"`
	ConfigURI    string   `json:"config_uri,omitempty"`
	StaticTokens []string `json:"static_tokens,omitempty"`
}

type DeviceConfirmRequest struct {
	Token string `json:"token"`
}

type DeviceConfirmResponse struct {
	PersistentID string `json:"persistent_id"`
	DeviceType   string `json:"device_type"`
	Confirmed    bool   `json:"confirmed"`
}

func (DeviceConfirmResponse) Message() string {
	return "Device confirmed."
}

type DeviceListItem struct {
	PersistentID string    `json:"persistent_id"`
	Name         string    `json:"name"`
	DeviceType   string    `json:"device_type"`
	Confirmed    bool      `json:"confirmed"`
	Interactive  bool      `json:"interactive"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeviceListResponse struct {
	Devices []DeviceListItem `json:"devices"`
}

type DeviceDetailResponse struct {
	PersistentID string    `json:"persistent_id"`
	Name         string    `json:"name"`
	DeviceType   string    `json:"device_type"`
	Confirmed    bool      `json:"confirmed"`
	Interactive  bool      `json:"interactive"`
	Email        string    `json:"email,omitempty"`
	FailureCount uint32    `json:"failure_count"`
	Digits       int       `json:"digits,omitempty"`
	UnusedTokens int       `json:"unused_tokens,omitempty"`
	LastUsedAt   time.Time `json:"last_used_at,omitzero"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DeviceDeleteResponse struct {
	PersistentID string `json:"persistent_id"`
}

func (DeviceDeleteResponse) Message() string {
	return "Device deleted."
}

type DeviceResetResponse struct {
	PersistentID string `json:"persistent_id"`
}

func (DeviceResetResponse) Message() string {
	return "Device throttling and cooldown reset."
}

type GenerateChallengeResponse struct {
	PersistentID string `json:"persistent_id"`
	DeviceType   string `json:"device_type"`
	Delivered    bool   `json:"delivered"`
}

func (GenerateChallengeResponse) Message() string {
	return "Verification code sent."
}

type ConfigURIResponse struct {
	PersistentID string `json:"persistent_id"`
	ConfigURI    string `json:"config_uri"`
}

type StaticTokenCreateRequest struct {
	Count int `json:"count"`
}

type StaticTokenCreateResponse struct {
	PersistentID string   `json:"persistent_id"`
	Tokens       []string `json:"tokens"`
}

func (StaticTokenCreateResponse) Message() string {
	return "Backup tokens created. Store them safely; they will not be shown again."
}
