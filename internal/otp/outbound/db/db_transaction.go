package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

// InvalidateAndInsert supersedes every unused code of rec.Identity and stores rec, atomically.
// Concurrent calls for one identity are serialized by a transaction scoped advisory lock.
func (s *DB) InvalidateAndInsert(ctx context.Context, rec entity.Record) (err error) {
	ctx, span := s.startSpan(ctx, "InvalidateAndInsert")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, queryLockIdentity, rec.Identity); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, queryInvalidateUnused, rec.Identity); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, queryInsert,
		rec.ID,
		rec.Identity,
		rec.Code,
		rec.CreatedAt,
		rec.ExpiresAt,
	); err != nil {
		err = s.mapError(err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = s.mapError(err)
		return err
	}

	return nil
}
