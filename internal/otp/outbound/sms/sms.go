package sms

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	pkgsms "github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"go.opentelemetry.io/otel/codes"
)

type sender interface {
	Send(ctx context.Context, msg pkgsms.Message) error
}

// SMS delivers codes straight to the gateway inside the request.
type SMS struct {
	client sender
	ins    instrument.Instrumentation
}

func NewSMS(client sender, ins instrument.Instrumentation) *SMS {
	return &SMS{client: client, ins: ins}
}

func (s *SMS) Deliver(ctx context.Context, identity, message string) error {
	ctx, span := s.ins.Tracer("otp.outbound.sms").Start(ctx, "Deliver")
	defer span.End()

	if err := s.client.Send(ctx, pkgsms.Message{To: identity, Body: message}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
