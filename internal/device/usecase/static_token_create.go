package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
)

type StaticTokenCreateInput struct {
	PersistentID string `validate:"required"`
	Count        int    `validate:"required,min=1,max=50"`
}

type StaticTokenCreateOutput struct {
	PersistentID string

	// Tokens are the plaintext backup tokens, shown exactly once.
	Tokens []string
}

// StaticTokenCreate adds fresh single-use backup tokens to a static device.
// Existing tokens, used or not, are left alone.
func (s *Usecase) StaticTokenCreate(ctx context.Context, in StaticTokenCreateInput) (*StaticTokenCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "StaticTokenCreate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	dev, err := s.ownedDevice(ctx, clm, in.PersistentID)
	if err != nil {
		return nil, err
	}

	if dev.Type != entity.DeviceTypeStatic {
		return nil, goerror.NewBusiness("device type has no static tokens", goerror.CodeInvalidInput)
	}

	tokens, plains, err := s.newStaticTokens(ctx, dev.ID, in.Count)
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.AddStaticTokens(ctx, tokens); err != nil {
		slog.ErrorContext(ctx, "failed to repo add static tokens", "persistent_id", in.PersistentID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StaticTokenCreateOutput{PersistentID: dev.PersistentID(), Tokens: plains}, nil
}
