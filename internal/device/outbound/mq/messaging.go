package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpd/internal/device/usecase"
	"github.com/shandysiswandi/otpd/internal/pkg/instrument"
	"github.com/shandysiswandi/otpd/internal/pkg/messaging"
	"github.com/shandysiswandi/otpd/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishTokenVerified(ctx context.Context, msg usecase.TokenVerifiedEvent) error {
	ctx, span := m.ins.Tracer("device.outbound.mq").Start(ctx, "PublishTokenVerified")
	defer span.End()

	body, err := json.Marshal(event.TokenVerifiedMessage{
		UserID:       msg.UserID,
		PersistentID: msg.PersistentID,
		DeviceType:   msg.DeviceType,
		Verified:     msg.Verified,
		Reason:       msg.Reason,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.TokenVerifiedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishChallengeGenerated(ctx context.Context, msg usecase.ChallengeGeneratedEvent) error {
	ctx, span := m.ins.Tracer("device.outbound.mq").Start(ctx, "PublishChallengeGenerated")
	defer span.End()

	body, err := json.Marshal(event.ChallengeGeneratedMessage{
		UserID:       msg.UserID,
		PersistentID: msg.PersistentID,
		DeviceType:   msg.DeviceType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.ChallengeGeneratedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
