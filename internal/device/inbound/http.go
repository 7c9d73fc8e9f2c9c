package inbound

import (
	"context"

	"github.com/shandysiswandi/otpd/internal/device/usecase"
	"github.com/shandysiswandi/otpd/internal/pkg/router"
)

type uc interface {
	VerifyToken(ctx context.Context, in usecase.VerifyTokenInput) (*usecase.VerifyTokenOutput, error)
	GenerateChallenge(ctx context.Context, in usecase.GenerateChallengeInput) (*usecase.GenerateChallengeOutput, error)

	DeviceCreate(ctx context.Context, in usecase.DeviceCreateInput) (*usecase.DeviceCreateOutput, error)
	DeviceConfirm(ctx context.Context, in usecase.DeviceConfirmInput) (*usecase.DeviceConfirmOutput, error)
	DeviceList(ctx context.Context, in usecase.DeviceListInput) (*usecase.DeviceListOutput, error)
	DeviceDetail(ctx context.Context, in usecase.DeviceDetailInput) (*usecase.DeviceDetailOutput, error)
	DeviceDelete(ctx context.Context, in usecase.DeviceDeleteInput) (*usecase.DeviceDeleteOutput, error)
	DeviceReset(ctx context.Context, in usecase.DeviceResetInput) (*usecase.DeviceResetOutput, error)

	ConfigURI(ctx context.Context, in usecase.ConfigURIInput) (*usecase.ConfigURIOutput, error)
	StaticTokenCreate(ctx context.Context, in usecase.StaticTokenCreateInput) (*usecase.StaticTokenCreateOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Verification
	r.POST("/api/v1/otp/verify", end.VerifyToken)

	// Device Management
	r.POST("/api/v1/otp/devices", end.DeviceCreate)
	r.GET("/api/v1/otp/devices", end.DeviceList)
	r.GET("/api/v1/otp/devices/:type/:id", end.DeviceDetail)
	r.DELETE("/api/v1/otp/devices/:type/:id", end.DeviceDelete)
	r.POST("/api/v1/otp/devices/:type/:id/confirm", end.DeviceConfirm)
	r.POST("/api/v1/otp/devices/:type/:id/reset", end.DeviceReset)

	// Side-channel challenges
	r.POST("/api/v1/otp/devices/:type/:id/challenge", end.GenerateChallenge)

	// Provisioning
	r.GET("/api/v1/otp/devices/:type/:id/config-uri", end.ConfigURI)
	r.POST("/api/v1/otp/devices/:type/:id/tokens", end.StaticTokenCreate)
}
