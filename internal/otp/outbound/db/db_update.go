package db

import (
	"context"
	"time"
)

// IncrementAttempts adds one failed attempt only if the record is unused and still at expected.
func (s *DB) IncrementAttempts(ctx context.Context, id int64, expected int) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryIncrementAttempts, id, expected)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// MarkUsed flips an unused record to used. verifiedAt is nil for a lockout.
func (s *DB) MarkUsed(ctx context.Context, id int64, verifiedAt *time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkUsed")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryMarkUsed, id, verifiedAt)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
