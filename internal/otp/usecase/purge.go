package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

// PurgeExpired deletes records whose expiry is older than the retention period.
func (s *Usecase) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "PurgeExpired")
	defer span.End()

	st := s.settings()
	before := s.clock.Now().Add(-st.retention)

	rctx, cancel := s.repoCtx(ctx)
	defer cancel()

	n, err := s.repoDB.PurgeExpired(rctx, before)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge expired otp", "before", before, "error", err)
		return 0, errors.Join(entity.ErrRepositoryUnavailable, err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "purged expired otp records", "count", n, "before", before)
	}

	return n, nil
}
