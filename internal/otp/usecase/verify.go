package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Verify checks code against the newest active record of identity.
// Remaining on a mismatch is counted after the failed attempt is stored; the lockout
// itself is reported by the next call once attempts reached the maximum.
func (s *Usecase) Verify(ctx context.Context, identity, code string) (entity.VerifyOutcome, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	var out entity.VerifyOutcome
	err := s.withIdentityLock(ctx, identity, func(ctx context.Context) error {
		var err error
		out, err = s.verifyLocked(ctx, identity, code)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify otp", "identity", identity, "error", err)
		return entity.VerifyOutcome{}, errors.Join(entity.ErrRepositoryUnavailable, err)
	}

	s.verified.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", out.Result.String())))

	return out, nil
}

func (s *Usecase) verifyLocked(ctx context.Context, identity, code string) (entity.VerifyOutcome, error) {
	st := s.settings()

	rctx, cancel := s.repoCtx(ctx)
	defer cancel()

	now := s.clock.Now()
	rec, err := s.repoDB.FindActive(rctx, identity, now)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.VerifyOutcome{Result: entity.VerifyNotFound}, nil
	}
	if err != nil {
		return entity.VerifyOutcome{}, err
	}

	if rec.Attempts >= st.maxAttempts {
		if _, err := s.repoDB.MarkUsed(rctx, rec.ID, nil); err != nil {
			return entity.VerifyOutcome{}, err
		}
		return entity.VerifyOutcome{Result: entity.VerifyAttemptsExceeded}, nil
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(rec.Code)) != 1 {
		ok, err := s.repoDB.IncrementAttempts(rctx, rec.ID, rec.Attempts)
		if err != nil {
			return entity.VerifyOutcome{}, err
		}
		if !ok {
			// a concurrent call changed the record first
			return entity.VerifyOutcome{Result: entity.VerifyNotFound}, nil
		}
		return entity.VerifyOutcome{Result: entity.VerifyMismatch, Remaining: st.maxAttempts - (rec.Attempts + 1)}, nil
	}

	ok, err := s.repoDB.MarkUsed(rctx, rec.ID, &now)
	if err != nil {
		return entity.VerifyOutcome{}, err
	}
	if !ok {
		return entity.VerifyOutcome{Result: entity.VerifyNotFound}, nil
	}

	return entity.VerifyOutcome{Result: entity.VerifySuccess}, nil
}
