package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

// Messaging hands rendered codes to the notification consumer through the broker.
type Messaging struct {
	client messaging.Publisher
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, clk clock.Clocker, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, clock: clk, ins: ins}
}

func (m *Messaging) Deliver(ctx context.Context, identity, message string) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "Deliver")
	defer span.End()

	body, err := json.Marshal(event.OTPDeliveryMessage{
		Phone:       identity,
		Message:     message,
		RequestedAt: m.clock.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.OTPDeliveryDestination, messaging.Outgoing{
		Key:     []byte(identity),
		Body:    body,
		Headers: []messaging.Header{{Key: event.KeyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
