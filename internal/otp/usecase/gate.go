package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// CheckGate applies the per-identity caps against the stored history.
// Checks run in order gap, hourly, daily; the first failure wins and skips the remaining reads.
func (s *Usecase) CheckGate(ctx context.Context, identity string, now time.Time) (entity.GateOutcome, error) {
	ctx, span := s.startSpan(ctx, "CheckGate")
	defer span.End()

	st := s.settings()

	rctx, cancel := s.repoCtx(ctx)
	defer cancel()

	latest, err := s.repoDB.FindLatest(rctx, identity)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find latest otp", "identity", identity, "error", err)
		return entity.GateOutcome{}, errors.Join(entity.ErrRepositoryUnavailable, err)
	}

	if latest != nil {
		elapsed := now.Sub(latest.CreatedAt)
		if elapsed < st.minGap {
			wait := int(math.Ceil((st.minGap - elapsed).Seconds()))
			return entity.GateOutcome{Result: entity.GateTooSoon, RetryAfterSeconds: wait}, nil
		}
	}

	hourly, err := s.repoDB.CountSince(rctx, identity, now.Add(-time.Hour))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count hourly otp", "identity", identity, "error", err)
		return entity.GateOutcome{}, errors.Join(entity.ErrRepositoryUnavailable, err)
	}
	if hourly >= st.maxPerHour {
		return entity.GateOutcome{Result: entity.GateHourlyExceeded}, nil
	}

	daily, err := s.repoDB.CountSince(rctx, identity, clock.StartOfDay(now, s.loc))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count daily otp", "identity", identity, "error", err)
		return entity.GateOutcome{}, errors.Join(entity.ErrRepositoryUnavailable, err)
	}
	if daily >= st.maxPerDay {
		return entity.GateOutcome{Result: entity.GateDailyExceeded}, nil
	}

	return entity.GateOutcome{Result: entity.GateAllowed}, nil
}
