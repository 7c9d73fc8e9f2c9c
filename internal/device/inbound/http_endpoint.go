package inbound

import (
	"github.com/shandysiswandi/otpd/internal/device/usecase"
	"github.com/shandysiswandi/otpd/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for OTP verification and device
// management workflows.
type HTTPEndpoint struct {
	uc uc
}

// persistentID rebuilds the "<type>/<id>" device handle from path params.
func persistentID(r *router.Request) string {
	return r.GetParam("type") + "/" + r.GetParam("id")
}

// VerifyToken checks a submitted token against one of the caller's devices.
func (h *HTTPEndpoint) VerifyToken(r *router.Request) (any, error) {
	var req VerifyTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyToken(r.Context(), usecase.VerifyTokenInput{
		PersistentID: req.PersistentID,
		Token:        req.Token,
	})
	if err != nil {
		return nil, err
	}

	return VerifyTokenResponse{
		PersistentID: resp.PersistentID,
		DeviceType:   resp.DeviceType,
		Verified:     resp.Verified,
	}, nil
}

// DeviceCreate registers a new OTP device.
func (h *HTTPEndpoint) DeviceCreate(r *router.Request) (any, error) {
	var req DeviceCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.DeviceCreate(r.Context(), usecase.DeviceCreateInput{
		Type:           req.Type,
		Name:           req.Name,
		Email:          req.Email,
		Digits:         req.Digits,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return nil, err
	}

	return DeviceCreateResponse{
		PersistentID: resp.PersistentID,
		DeviceType:   resp.DeviceType,
		Confirmed:    resp.Confirmed,
		ConfigURI:    resp.ConfigURI,
		StaticTokens: resp.StaticTokens,
	}, nil
}

// DeviceConfirm proves possession of an unconfirmed device.
func (h *HTTPEndpoint) DeviceConfirm(r *router.Request) (any, error) {
	var req DeviceConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.DeviceConfirm(r.Context(), usecase.DeviceConfirmInput{
		PersistentID: persistentID(r),
		Token:        req.Token,
	})
	if err != nil {
		return nil, err
	}

	return DeviceConfirmResponse{
		PersistentID: resp.PersistentID,
		DeviceType:   resp.DeviceType,
		Confirmed:    resp.Confirmed,
	}, nil
}

// DeviceList returns the caller's devices.
func (h *HTTPEndpoint) DeviceList(r *router.Request) (any, error) {
	resp, err := h.uc.DeviceList(r.Context(), usecase.DeviceListInput{
		ConfirmedOnly: r.GetQuery("confirmed_only") == "true",
	})
	if err != nil {
		return nil, err
	}

	items := make([]DeviceListItem, 0, len(resp.Devices))
	for _, dev := range resp.Devices {
		items = append(items, DeviceListItem{
			PersistentID: dev.PersistentID,
			Name:         dev.Name,
			DeviceType:   dev.DeviceType,
			Confirmed:    dev.Confirmed,
			Interactive:  dev.Interactive,
			CreatedAt:    dev.CreatedAt,
		})
	}

	return DeviceListResponse{Devices: items}, nil
}

// DeviceDetail returns one device's public parameters.
func (h *HTTPEndpoint) DeviceDetail(r *router.Request) (any, error) {
	resp, err := h.uc.DeviceDetail(r.Context(), usecase.DeviceDetailInput{
		PersistentID: persistentID(r),
	})
	if err != nil {
		return nil, err
	}

	return DeviceDetailResponse{
		PersistentID: resp.PersistentID,
		Name:         resp.Name,
		DeviceType:   resp.DeviceType,
		Confirmed:    resp.Confirmed,
		Interactive:  resp.Interactive,
		Email:        resp.Email,
		FailureCount: resp.FailureCount,
		Digits:       resp.Digits,
		UnusedTokens: resp.UnusedTokens,
		LastUsedAt:   resp.LastUsedAt,
		CreatedAt:    resp.CreatedAt,
		UpdatedAt:    resp.UpdatedAt,
	}, nil
}

// DeviceDelete removes a device.
func (h *HTTPEndpoint) DeviceDelete(r *router.Request) (any, error) {
	resp, err := h.uc.DeviceDelete(r.Context(), usecase.DeviceDeleteInput{
		PersistentID: persistentID(r),
	})
	if err != nil {
		return nil, err
	}

	return DeviceDeleteResponse{PersistentID: resp.PersistentID}, nil
}

// DeviceReset clears a device's failure lockout and generation cooldown.
func (h *HTTPEndpoint) DeviceReset(r *router.Request) (any, error) {
	resp, err := h.uc.DeviceReset(r.Context(), usecase.DeviceResetInput{
		PersistentID: persistentID(r),
	})
	if err != nil {
		return nil, err
	}

	return DeviceResetResponse{PersistentID: resp.PersistentID}, nil
}

// GenerateChallenge creates and delivers a token for a side-channel device.
func (h *HTTPEndpoint) GenerateChallenge(r *router.Request) (any, error) {
	resp, err := h.uc.GenerateChallenge(r.Context(), usecase.GenerateChallengeInput{
		PersistentID: persistentID(r),
	})
	if err != nil {
		return nil, err
	}

	return GenerateChallengeResponse{
		PersistentID: resp.PersistentID,
		DeviceType:   resp.DeviceType,
		Delivered:    resp.Delivered,
	}, nil
}

// ConfigURI returns the provisioning URI for a generator device.
func (h *HTTPEndpoint) ConfigURI(r *router.Request) (any, error) {
	resp, err := h.uc.ConfigURI(r.Context(), usecase.ConfigURIInput{
		PersistentID: persistentID(r),
	})
	if err != nil {
		return nil, err
	}

	return ConfigURIResponse{
		PersistentID: resp.PersistentID,
		ConfigURI:    resp.ConfigURI,
	}, nil
}

// StaticTokenCreate adds backup tokens to a static device.
func (h *HTTPEndpoint) StaticTokenCreate(r *router.Request) (any, error) {
	var req StaticTokenCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.StaticTokenCreate(r.Context(), usecase.StaticTokenCreateInput{
		PersistentID: persistentID(r),
		Count:        req.Count,
	})
	if err != nil {
		return nil, err
	}

	return StaticTokenCreateResponse{
		PersistentID: resp.PersistentID,
		Tokens:       resp.Tokens,
	}, nil
}
