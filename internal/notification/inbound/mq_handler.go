package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(event.KeyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OTPDeliveryNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPDeliveryNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: otp delivery notification", "msg_id", msg.ID)

	var payload event.OTPDeliveryMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp delivery notification", "msg_id", msg.ID, "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPDelivery(ctx, usecase.ConsumeOTPDeliveryInput{
		Phone:   payload.Phone,
		Message: payload.Message,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp delivery", "msg_id", msg.ID, "error", err)
		return err
	}

	return nil
}
