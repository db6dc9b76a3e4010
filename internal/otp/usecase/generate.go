package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

type GenerateOutput struct {
	ExpiresInSeconds int
}

// Generate issues a fresh code for identity, superseding any unused one, and hands it to delivery.
// A delivery failure leaves the stored record in place.
func (s *Usecase) Generate(ctx context.Context, identity string) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Generate")
	defer span.End()

	return s.generate(ctx, identity, nil)
}

// generate runs admit and the supersede-then-insert in one hold of the identity
// lock, so a concurrent caller sees the new record in its own admit. Delivery
// happens after the lock is released.
func (s *Usecase) generate(ctx context.Context, identity string, admit func(ctx context.Context) error) (*GenerateOutput, error) {
	st := s.settings()

	code, err := generateCode(st.codeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, err
	}

	var rec entity.Record
	err = s.withIdentityLock(ctx, identity, func(ctx context.Context) error {
		if admit != nil {
			if err := admit(ctx); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		rec = entity.Record{
			ID:        s.uid.Generate(),
			Identity:  identity,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: now.Add(st.ttl),
		}

		rctx, cancel := s.repoCtx(ctx)
		defer cancel()

		if err := s.repoDB.InvalidateAndInsert(rctx, rec); err != nil {
			slog.ErrorContext(ctx, "failed to store otp", "identity", identity, "error", err)
			return errors.Join(entity.ErrRepositoryUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, st.deliveryTimeout)
	defer cancel()

	msg := renderMessage(st.appName, code, int(st.ttl.Minutes()))
	if err := s.deliverer.Deliver(dctx, identity, msg); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "identity", identity, "otp_id", rec.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, err)
	}

	s.issued.Add(ctx, 1)

	return &GenerateOutput{ExpiresInSeconds: int(st.ttl.Seconds())}, nil
}
