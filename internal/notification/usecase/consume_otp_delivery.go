package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
)

type ConsumeOTPDeliveryInput struct {
	Phone   string `validate:"required,phone"`
	Message string `validate:"required"`
}

// ConsumeOTPDelivery sends the rendered code by SMS. Invalid payloads are dropped;
// gateway failures are returned so the broker redelivers.
func (s *Usecase) ConsumeOTPDelivery(ctx context.Context, in ConsumeOTPDeliveryInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPDelivery")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if err := s.repoSMS.Send(ctx, sms.Message{To: in.Phone, Body: in.Message}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp sms", "phone", in.Phone, "error", err)
		return err
	}

	return nil
}
